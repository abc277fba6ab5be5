package api

import (
	"encoding/json"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pedro199288/reelforge-sub004/internal/cloud"
	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/export"
	"github.com/pedro199288/reelforge-sub004/internal/project"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if strings.ToLower(req.Format) != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		ctx := r.Context()
		p, err := cfg.ProjectService.GetProject(ctx, req.ProjectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		tracks, err := cfg.ProjectService.GetTracks(ctx, p.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		var videoTrack, captionTrack *project.Track
		for _, t := range tracks {
			switch t.Kind {
			case project.TrackKindVideo:
				if videoTrack == nil {
					videoTrack = t
				}
			case project.TrackKindCaption:
				if captionTrack == nil {
					captionTrack = t
				}
			}
		}
		if videoTrack == nil {
			WriteError(w, http.StatusUnprocessableEntity, "project has no video track", "NO_VIDEO_TRACK")
			return
		}

		items, err := cfg.ProjectService.TrackItems(ctx, videoTrack.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if len(items) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "video track is empty", "EMPTY_TRACK")
			return
		}

		mapper, err := cfg.ProjectService.Mapper(ctx, p.ID, cutmap.SpaceOriginal)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if len(mapper.Entries()) == 0 {
			mapper = nil
		}

		clips, unresolved := export.BuildCutClips(items, mapper, p.FrameRate, p.SourcePath)
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips could be resolved", "UNRESOLVABLE_CLIPS")
			return
		}

		title := export.SanitizeName(req.Title, 120)
		if title == "" {
			title = export.SanitizeName(p.Name, 120)
		}
		if title == "" {
			title = "reelforge_export"
		}

		edl := export.GenerateEDL(clips, title, p.FrameRate)
		outputPath := filepath.Join(req.OutputDir, title+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		resp := export.Response{
			Status:          "ok",
			Format:          "edl",
			OutputPath:      outputPath,
			ClipCount:       len(clips),
			UnresolvedClips: unresolved,
		}
		if resp.UnresolvedClips == nil {
			resp.UnresolvedClips = []string{}
		}

		var srt string
		if req.IncludeSRT && captionTrack != nil {
			srt, err = buildSRT(cfg, r, captionTrack.ID, mapper, p.FrameRate)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			if srt != "" {
				srtPath := filepath.Join(req.OutputDir, title+".srt")
				if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
					WriteError(w, http.StatusInternalServerError, "failed to write subtitle file", "INTERNAL_ERROR")
					return
				}
				resp.SRTPath = srtPath
			}
		}

		if cfg.CloudClient != nil {
			publishExport(cfg, r, p, edl, srt, clips)
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func buildSRT(cfg ServerConfig, r *http.Request, captionTrackID string, mapper *cutmap.Mapper, frameRate float64) (string, error) {
	items, err := cfg.ProjectService.TrackItems(r.Context(), captionTrackID)
	if err != nil {
		return "", err
	}
	if frameRate <= 0 {
		frameRate = 30
	}

	captions := make([]cutmap.Caption, 0, len(items))
	for _, it := range items {
		if it.Kind != timeline.KindCaption || it.Text == "" {
			continue
		}
		captions = append(captions, cutmap.Caption{
			StartMs: framesToMs(it.From, frameRate),
			EndMs:   framesToMs(it.End(), frameRate),
			Text:    it.Text,
		})
	}
	if mapper != nil {
		captions = mapper.MapCaptionsToCut(captions)
	}
	if len(captions) == 0 {
		return "", nil
	}
	return export.GenerateSRT(captions), nil
}

// publishExport ships the rendered export to the cloud. Failures are logged
// and do not fail the local export.
func publishExport(cfg ServerConfig, r *http.Request, p *project.Project, edl, srt string, clips []export.ResolvedClip) {
	docs := make([]cloud.ExportClipDoc, len(clips))
	for i, c := range clips {
		docs[i] = cloud.ExportClipDoc{
			ItemID:   c.ItemID,
			ClipName: c.ClipName,
			StartMs:  c.StartMs,
			EndMs:    c.EndMs,
		}
	}

	err := cfg.CloudClient.PublishExport(r.Context(), cloud.ExportPayload{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Format:      "edl",
		EDL:         edl,
		SRT:         srt,
		Clips:       docs,
	})
	if err != nil {
		cfg.Logger.Warn("cloud publish failed", "project_id", p.ID, "error", err)
	}
}

func framesToMs(frames int, frameRate float64) int {
	return int(math.Round(float64(frames) * 1000.0 / frameRate))
}
