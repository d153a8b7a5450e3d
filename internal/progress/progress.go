// Package progress reports fan-out progress from many workers through one
// synchronized point: a terminal bar when attached to a TTY, sampled log
// lines otherwise.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"rivendb/internal/logging"
)

// Mode selects how progress is rendered.
type Mode int

const (
	// Auto renders a bar on terminals and log lines elsewhere.
	Auto Mode = iota
	Bar
	Log
	Quiet
)

// Options configures a Reporter.
type Options struct {
	Writer io.Writer
	Logger *slog.Logger
	Mode   Mode
}

// Reporter counts completed items. It is safe for concurrent use.
type Reporter struct {
	mu      sync.Mutex
	label   string
	total   int
	done    int
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// New returns a reporter for total items described by label.
func New(label string, total int, opts Options) *Reporter {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	mode := opts.Mode
	if mode == Auto {
		mode = Log
		if isTerminal(writer) {
			mode = Bar
		}
	}

	r := &Reporter{label: label, total: total, logger: logging.NewComponentLogger(opts.Logger, "progress")}
	switch mode {
	case Bar:
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	case Log:
		r.sampler = logging.NewProgressSampler(10)
	}
	return r
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Increment records one finished item.
func (r *Reporter) Increment() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	switch {
	case r.bar != nil:
		_ = r.bar.Add(1)
	case r.sampler != nil && r.sampler.ShouldLog(r.label, r.done, r.total):
		r.logger.Info(Line(r.label, r.done, r.total))
	}
}

// Done returns the number of finished items.
func (r *Reporter) Done() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Finish completes the bar, if any.
func (r *Reporter) Finish() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// Line formats one progress line, e.g. "Analyzing image 3/10 (30.0%)".
func Line(label string, done, total int) string {
	pct := 100.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	return fmt.Sprintf("%s %d/%d (%.1f%%)", label, done, total, pct)
}
