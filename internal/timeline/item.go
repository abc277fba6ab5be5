// Package timeline defines the placed-item model for a track and the
// overlap resolver that keeps a track free of overlapping items under
// arbitrary insertion. All placement arithmetic is frame-based.
package timeline

// Kind identifies the variant of a placed item. The set is closed;
// operations that behave per-variant switch exhaustively on it.
type Kind string

const (
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindSolid   Kind = "solid"
	KindCaption Kind = "caption"
)

// IsMedia reports whether the variant carries a source trim window.
func (k Kind) IsMedia() bool {
	return k == KindVideo || k == KindAudio
}

// Item is a single placed unit on a track. From and DurationInFrames are
// in frames; a placed item always has From >= 0 and DurationInFrames > 0.
// For media variants TrimEndFrame-TrimStartFrame == DurationInFrames holds
// after every placement operation.
type Item struct {
	ID               string  `json:"id"`
	TrackID          string  `json:"track_id"`
	Kind             Kind    `json:"kind"`
	From             int     `json:"from"`
	DurationInFrames int     `json:"duration_in_frames"`
	Src              string  `json:"src,omitempty"`
	TrimStartFrame   int     `json:"trim_start_frame,omitempty"`
	TrimEndFrame     int     `json:"trim_end_frame,omitempty"`
	Text             string  `json:"text,omitempty"`
	Color            string  `json:"color,omitempty"`
	Scale            float64 `json:"scale,omitempty"`
	PosX             int     `json:"pos_x,omitempty"`
	PosY             int     `json:"pos_y,omitempty"`
}

// End returns the exclusive end frame of the item's interval.
func (it Item) End() int {
	return it.From + it.DurationInFrames
}

// Overlaps reports whether the half-open intervals of two items intersect.
func (it Item) Overlaps(other Item) bool {
	return it.From < other.End() && it.End() > other.From
}

// NewVideoItem returns a video item exposing the first duration frames of src.
func NewVideoItem(id, trackID, src string, from, duration int) Item {
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindVideo,
		From:             from,
		DurationInFrames: duration,
		Src:              src,
		TrimStartFrame:   0,
		TrimEndFrame:     duration,
		Scale:            1,
	}
}

// NewAudioItem returns an audio item exposing the first duration frames of src.
func NewAudioItem(id, trackID, src string, from, duration int) Item {
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindAudio,
		From:             from,
		DurationInFrames: duration,
		Src:              src,
		TrimStartFrame:   0,
		TrimEndFrame:     duration,
	}
}

func NewTextItem(id, trackID, text string, from, duration int) Item {
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindText,
		From:             from,
		DurationInFrames: duration,
		Text:             text,
		Color:            "#ffffff",
		Scale:            1,
	}
}

func NewImageItem(id, trackID, src string, from, duration int) Item {
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindImage,
		From:             from,
		DurationInFrames: duration,
		Src:              src,
		Scale:            1,
	}
}

func NewSolidItem(id, trackID, color string, from, duration int) Item {
	if color == "" {
		color = "#000000"
	}
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindSolid,
		From:             from,
		DurationInFrames: duration,
		Color:            color,
		Scale:            1,
	}
}

func NewCaptionItem(id, trackID, text string, from, duration int) Item {
	return Item{
		ID:               id,
		TrackID:          trackID,
		Kind:             KindCaption,
		From:             from,
		DurationInFrames: duration,
		Text:             text,
		Color:            "#ffffff",
		Scale:            1,
	}
}
