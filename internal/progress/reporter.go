package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/icpac-igad/cgan-fetch/internal/mirror"
)

// Options configures the outcome reporter.
type Options struct {
	// Output is where to write status lines.
	// Default: os.Stdout
	Output io.Writer

	// Quiet suppresses per-object lines for everything except failures.
	Quiet bool
}

// Reporter folds download outcomes into a running tally and prints a
// human-readable line per outcome. Safe for use from a single collecting
// goroutine; Summary may be read from others.
type Reporter struct {
	opts  Options
	start time.Time

	mu      sync.Mutex
	summary mirror.Summary
}

// NewReporter creates a reporter. The run duration is measured from here.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Reporter{opts: opts, start: time.Now()}
}

// Record folds one outcome into the tally and prints its status line.
func (r *Reporter) Record(o mirror.Outcome) {
	r.mu.Lock()
	r.summary.Add(o)
	r.mu.Unlock()

	switch o.Kind {
	case mirror.Downloaded:
		if !r.opts.Quiet {
			fmt.Fprintf(r.opts.Output, "ok    %s (%s)\n", o.RelPath, FormatBytes(o.Object.Size))
		}
	case mirror.Skipped:
		if !r.opts.Quiet {
			fmt.Fprintf(r.opts.Output, "skip  %s (exists, same size)\n", o.RelPath)
		}
	case mirror.DirMarker:
		if !r.opts.Quiet {
			fmt.Fprintf(r.opts.Output, "dir   %s (marker, not transferred)\n", o.Object.Key)
		}
	case mirror.Failed:
		// Failures always print, quiet or not.
		fmt.Fprintf(r.opts.Output, "FAIL  %s: %v\n", o.RelPath, o.Err)
	}
}

// Summary returns a snapshot of the running tally.
func (r *Reporter) Summary() mirror.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// PrintSummary writes the final counts for one prefix run.
func (r *Reporter) PrintSummary() {
	s := r.Summary()
	fmt.Fprintf(r.opts.Output, "done: %d downloaded (%s), %d skipped, %d failed, %d objects listed in %s\n",
		s.Downloaded,
		FormatBytes(s.Bytes),
		s.Skipped,
		s.Failed,
		s.Total,
		FormatDuration(time.Since(r.start)),
	)
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatDuration formats a duration as a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string (e.g. "8MB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1

	switch {
	case hasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	if _, err := fmt.Sscanf(s, "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
