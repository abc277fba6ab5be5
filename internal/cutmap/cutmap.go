// Package cutmap translates time positions between a recording's original
// timeline and its cut timeline (the same material with silences removed).
// The correspondence is an ordered list of kept segments produced by the
// cutting stage; the mapper treats it as immutable and is a set of pure
// functions over it.
package cutmap

import "sort"

// Space names one of the two coordinate spaces positions can live in.
type Space string

const (
	SpaceOriginal Space = "original"
	SpaceCut      Space = "cut"
)

// Entry is one kept span of source material: where it sits in the original
// recording and where it landed in the cut timeline. Entries are sorted and
// non-overlapping in both spaces; the cutting stage never reorders kept
// material, so both orderings move in lockstep.
type Entry struct {
	OriginalStartMs int `json:"original_start_ms"`
	OriginalEndMs   int `json:"original_end_ms"`
	FinalStartMs    int `json:"final_start_ms"`
	FinalEndMs      int `json:"final_end_ms"`
}

// Segment is a generic enabled/disabled time range consumed for bulk
// translation. The payload is opaque to the mapper.
type Segment struct {
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Enabled bool   `json:"enabled"`
	Label   string `json:"label,omitempty"`
}

// Caption is a timed text range.
type Caption struct {
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Mapper translates positions and ranged records between the original and
// cut spaces for one source video. The zero value maps nothing; build it
// with New. The entry list is assumed sorted and non-overlapping in both
// spaces and is not re-validated.
type Mapper struct {
	entries         []Entry
	totalDurationMs int
	active          Space
}

// New returns a mapper over entries for a source of totalDurationMs, with
// the caller-selected active space.
func New(entries []Entry, totalDurationMs int, active Space) *Mapper {
	owned := make([]Entry, len(entries))
	copy(owned, entries)
	return &Mapper{
		entries:         owned,
		totalDurationMs: totalDurationMs,
		active:          active,
	}
}

// ActiveSpace returns the space positions are currently displayed in.
func (m *Mapper) ActiveSpace() Space {
	return m.active
}

// Entries returns a copy of the underlying cut map.
func (m *Mapper) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ActiveDuration returns the playable duration of the active space: the
// full source duration in original space, or the end of the last kept
// segment in cut space (0 for an empty map).
func (m *Mapper) ActiveDuration() int {
	if m.active == SpaceOriginal {
		return m.totalDurationMs
	}
	if len(m.entries) == 0 {
		return 0
	}
	return m.entries[len(m.entries)-1].FinalEndMs
}

// ToCut maps a position on the original timeline into the cut timeline.
// The second return is false when the position falls in removed material
// or outside every kept segment; such a moment has no cut-space
// representation.
func (m *Mapper) ToCut(originalMs int) (int, bool) {
	// Span ends are exclusive except on the last entry, so every moment
	// has at most one image and every mapped position survives a round
	// trip even when spans abut in one space but not the other.
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].OriginalEndMs > originalMs
	})
	if i == len(m.entries) && i > 0 && m.entries[i-1].OriginalEndMs == originalMs {
		i--
	}
	if i >= len(m.entries) || m.entries[i].OriginalStartMs > originalMs {
		return 0, false
	}
	e := m.entries[i]
	return e.FinalStartMs + (originalMs - e.OriginalStartMs), true
}

// ToOriginal maps a position on the cut timeline back into the original
// timeline. The second return is false for positions outside every kept
// segment.
func (m *Mapper) ToOriginal(cutMs int) (int, bool) {
	// Same boundary convention as ToCut. Kept spans are adjacent in cut
	// space whenever material between them was removed, so a shared cut
	// edge is the common shape and belongs to the later span.
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].FinalEndMs > cutMs
	})
	if i == len(m.entries) && i > 0 && m.entries[i-1].FinalEndMs == cutMs {
		i--
	}
	if i >= len(m.entries) || m.entries[i].FinalStartMs > cutMs {
		return 0, false
	}
	e := m.entries[i]
	return e.OriginalStartMs + (cutMs - e.FinalStartMs), true
}

// ToActive brings a position authored in fromSpace into the active space.
// Positions already in the active space pass through unchanged.
func (m *Mapper) ToActive(ms int, fromSpace Space) (int, bool) {
	if fromSpace == m.active {
		return ms, true
	}
	if m.active == SpaceCut {
		return m.ToCut(ms)
	}
	return m.ToOriginal(ms)
}

// MapSegmentsToCut translates the enabled segments into cut space, sorted
// by start. Segments are assumed to lie within kept material; a bound that
// nevertheless fails to map is coerced to 0 rather than dropped, and the
// segment is reported so callers can surface the anomaly.
func (m *Mapper) MapSegmentsToCut(segments []Segment) ([]Segment, []Segment) {
	enabled := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].StartMs < enabled[j].StartMs
	})

	var unmapped []Segment
	out := make([]Segment, 0, len(enabled))
	for _, s := range enabled {
		start, okStart := m.ToCut(s.StartMs)
		end, okEnd := m.ToCut(s.EndMs)
		if !okStart || !okEnd {
			unmapped = append(unmapped, s)
		}
		mapped := s
		mapped.StartMs = start
		mapped.EndMs = end
		out = append(out, mapped)
	}
	return out, unmapped
}

// MapCaptionsToCut translates captions into cut space. A caption lying
// partly or wholly in removed material cannot be represented faithfully
// and is dropped; the result is never longer than the input.
func (m *Mapper) MapCaptionsToCut(captions []Caption) []Caption {
	out := make([]Caption, 0, len(captions))
	for _, c := range captions {
		start, okStart := m.ToCut(c.StartMs)
		end, okEnd := m.ToCut(c.EndMs)
		if !okStart || !okEnd {
			continue
		}
		mapped := c
		mapped.StartMs = start
		mapped.EndMs = end
		out = append(out, mapped)
	}
	return out
}
