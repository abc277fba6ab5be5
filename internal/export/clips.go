package export

import (
	"fmt"
	"math"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

// BuildCutClips turns a track's media items into export clips in the cut
// coordinate space. Each item's trim window is converted from frames to
// source milliseconds and both endpoints are pushed through the mapper.
// Items whose endpoints fall in removed regions are returned in the second
// list rather than silently dropped; non-media items carry no source and
// are skipped outright.
func BuildCutClips(items []timeline.Item, mapper *cutmap.Mapper, frameRate float64, mediaPath string) ([]ResolvedClip, []string) {
	if frameRate <= 0 {
		frameRate = 30
	}

	sorted := make([]timeline.Item, len(items))
	copy(sorted, items)
	timeline.SortByFrom(sorted)

	clips := make([]ResolvedClip, 0, len(sorted))
	var unresolved []string

	for i, it := range sorted {
		if !it.Kind.IsMedia() {
			continue
		}

		startMs := framesToMs(it.TrimStartFrame, frameRate)
		endMs := framesToMs(it.TrimStartFrame+it.DurationInFrames, frameRate)

		if mapper != nil {
			// The trim window is half-open, so the end bound maps
			// through the last millisecond the clip includes. Mapping
			// endMs itself would reject clips that stop exactly where
			// a kept span does.
			cutStart, okStart := mapper.ToCut(startMs)
			cutLast, okEnd := mapper.ToCut(endMs - 1)
			if !okStart || !okEnd {
				unresolved = append(unresolved, it.ID)
				continue
			}
			startMs, endMs = cutStart, cutLast+1
		}

		path := it.Src
		if path == "" {
			path = mediaPath
		}

		clips = append(clips, ResolvedClip{
			ItemID:    it.ID,
			ClipName:  fmt.Sprintf("Clip %03d", i+1),
			MediaPath: path,
			StartMs:   startMs,
			EndMs:     endMs,
		})
	}

	return clips, unresolved
}

func framesToMs(frames int, frameRate float64) int {
	return int(math.Round(float64(frames) * 1000.0 / frameRate))
}
