package playback

import (
	"testing"
)

// clipSize stands in for a short screen capture; browsers issue open-ended
// and suffix ranges against files like this while seeking.
const clipSize = int64(2_000_000)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   error
	}{
		{"no header means whole clip", "", clipSize, 0, 0, true, nil},
		{"player probes first chunk", "bytes=0-65535", clipSize, 0, 65535, false, nil},
		{"resume mid-stream open ended", "bytes=1000000-", clipSize, 1000000, clipSize - 1, false, nil},
		{"tail seek for index atoms", "bytes=-16384", clipSize, clipSize - 16384, clipSize - 1, false, nil},
		{"single byte probe", "bytes=0-0", clipSize, 0, 0, false, nil},
		{"scrub to middle", "bytes=750000-850000", clipSize, 750000, 850000, false, nil},
		{"end clamped to clip size", "bytes=0-9999999", clipSize, 0, clipSize - 1, false, nil},
		{"suffix longer than clip", "bytes=-9999999", 500, 0, 499, false, nil},
		{"last byte of clip", "bytes=1999999-", clipSize, clipSize - 1, clipSize - 1, false, nil},
		{"multi range takes first", "bytes=0-99, 200-299", clipSize, 0, 99, false, nil},

		{"start at clip size", "bytes=2000000-", clipSize, 0, 0, false, ErrUnsatisfiable},
		{"range past clip end", "bytes=2500000-3000000", clipSize, 0, 0, false, ErrUnsatisfiable},
		{"not a range header", "invalid", clipSize, 0, 0, false, ErrInvalidRange},
		{"wrong unit", "chars=0-100", clipSize, 0, 0, false, ErrInvalidRange},
		{"garbage start", "bytes=abc-100", clipSize, 0, 0, false, ErrInvalidRange},
		{"garbage end", "bytes=0-abc", clipSize, 0, 0, false, ErrInvalidRange},
		{"zero suffix", "bytes=-0", clipSize, 0, 0, false, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseRange() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseRange() unexpected error: %v", err)
				return
			}

			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRange() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Errorf("ParseRange() = nil, want non-nil")
				return
			}

			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange() = {%d, %d}, want {%d, %d}", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRange_ContentLength(t *testing.T) {
	tests := []struct {
		start int64
		end   int64
		want  int64
	}{
		{0, 65535, 65536},
		{0, 0, 1},
		{clipSize - 16384, clipSize - 1, 16384},
	}

	for _, tt := range tests {
		r := &Range{Start: tt.start, End: tt.end}
		if got := r.ContentLength(); got != tt.want {
			t.Errorf("ContentLength() = %d, want %d", got, tt.want)
		}
	}
}

func TestRange_ContentRange(t *testing.T) {
	tests := []struct {
		start int64
		end   int64
		total int64
		want  string
	}{
		{0, 65535, clipSize, "bytes 0-65535/2000000"},
		{1000000, clipSize - 1, clipSize, "bytes 1000000-1999999/2000000"},
		{0, 0, 1, "bytes 0-0/1"},
	}

	for _, tt := range tests {
		r := &Range{Start: tt.start, End: tt.end}
		if got := r.ContentRange(tt.total); got != tt.want {
			t.Errorf("ContentRange() = %s, want %s", got, tt.want)
		}
	}
}
