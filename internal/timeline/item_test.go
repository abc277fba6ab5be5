package timeline

import "testing"

func TestConstructors_WellFormedDefaults(t *testing.T) {
	tests := []struct {
		name string
		item Item
		kind Kind
	}{
		{"video", NewVideoItem("v1", "t1", "clip.mp4", 10, 90), KindVideo},
		{"audio", NewAudioItem("a1", "t1", "voice.wav", 0, 40), KindAudio},
		{"text", NewTextItem("x1", "t1", "Title", 5, 30), KindText},
		{"image", NewImageItem("i1", "t1", "logo.png", 0, 60), KindImage},
		{"solid", NewSolidItem("s1", "t1", "", 0, 20), KindSolid},
		{"caption", NewCaptionItem("c1", "t1", "hello", 15, 25), KindCaption},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it := tc.item
			if it.Kind != tc.kind {
				t.Errorf("Kind = %s, want %s", it.Kind, tc.kind)
			}
			if it.From < 0 || it.DurationInFrames <= 0 {
				t.Errorf("malformed placement: from=%d duration=%d", it.From, it.DurationInFrames)
			}
			if it.Kind.IsMedia() {
				if it.TrimEndFrame-it.TrimStartFrame != it.DurationInFrames {
					t.Errorf("trim span %d != duration %d", it.TrimEndFrame-it.TrimStartFrame, it.DurationInFrames)
				}
			}
		})
	}

	if s := NewSolidItem("s1", "t1", "", 0, 20); s.Color != "#000000" {
		t.Errorf("solid default color = %s, want #000000", s.Color)
	}
}

func TestKindIsMedia(t *testing.T) {
	media := map[Kind]bool{
		KindVideo:   true,
		KindAudio:   true,
		KindText:    false,
		KindImage:   false,
		KindSolid:   false,
		KindCaption: false,
	}
	for k, want := range media {
		if got := k.IsMedia(); got != want {
			t.Errorf("%s.IsMedia() = %v, want %v", k, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		items   []Item
		wantErr bool
	}{
		{"empty", nil, false},
		{"touching items", []Item{
			NewVideoItem("a", "t", "a.mp4", 0, 50),
			NewVideoItem("b", "t", "b.mp4", 50, 50),
		}, false},
		{"overlapping items", []Item{
			NewVideoItem("a", "t", "a.mp4", 0, 60),
			NewVideoItem("b", "t", "b.mp4", 50, 50),
		}, true},
		{"negative start", []Item{
			{ID: "a", Kind: KindText, From: -1, DurationInFrames: 10},
		}, true},
		{"zero duration", []Item{
			{ID: "a", Kind: KindText, From: 0, DurationInFrames: 0},
		}, true},
		{"unsorted but valid", []Item{
			NewVideoItem("b", "t", "b.mp4", 100, 50),
			NewVideoItem("a", "t", "a.mp4", 0, 50),
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.items)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestTotalFrames(t *testing.T) {
	items := []Item{
		NewVideoItem("a", "t", "a.mp4", 0, 50),
		NewVideoItem("b", "t", "b.mp4", 100, 50),
	}
	if got := TotalFrames(items); got != 150 {
		t.Errorf("TotalFrames = %d, want 150", got)
	}
	if got := TotalFrames(nil); got != 0 {
		t.Errorf("TotalFrames(nil) = %d, want 0", got)
	}
}

func TestRemoveByID(t *testing.T) {
	items := []Item{
		NewVideoItem("a", "t", "a.mp4", 0, 50),
		NewVideoItem("b", "t", "b.mp4", 100, 50),
	}
	got := RemoveByID(items, "a")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("RemoveByID = %+v", got)
	}
	if got := RemoveByID(items, "missing"); len(got) != 2 {
		t.Errorf("removing unknown id changed the list: %d items", len(got))
	}
}
