package export

import (
	"fmt"
	"strings"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
)

// GenerateSRT renders cut-space captions as an SRT document. Captions are
// expected to already be translated into the cut space; empty input renders
// an empty document.
func GenerateSRT(captions []cutmap.Caption) string {
	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", msToSRTTime(c.StartMs), msToSRTTime(c.EndMs))
		b.WriteString(strings.TrimSpace(c.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// msToSRTTime converts milliseconds to the SRT time format HH:MM:SS,mmm.
func msToSRTTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	millis := ms % 1000
	totalSec := ms / 1000
	secs := totalSec % 60
	totalMin := totalSec / 60
	minutes := totalMin % 60
	hours := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
