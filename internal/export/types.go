package export

type Request struct {
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	Format     string `json:"format"`
	OutputDir  string `json:"output_dir"`
	IncludeSRT bool   `json:"include_srt"`
}

// ResolvedClip is one event in the exported cut: a source range in the cut
// coordinate space, ready for timecode conversion.
type ResolvedClip struct {
	ItemID    string
	ClipName  string
	MediaPath string
	StartMs   int
	EndMs     int
}

type Response struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"output_path"`
	SRTPath         string   `json:"srt_path,omitempty"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}
