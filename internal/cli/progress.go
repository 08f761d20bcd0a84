package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/capsync/internal/logging"
)

type progressReporter interface {
	Update(percent float64)
	Finish(ok bool)
}

// newProgressReporter draws a bar on a terminal and falls back to sampled
// log lines everywhere else.
func newProgressReporter(w io.Writer, log *slog.Logger, desc string) progressReporter {
	if isTerminal(w) {
		return &barReporter{bar: progressbar.NewOptions(1000,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)}
	}
	return &logReporter{log: log, desc: desc, sampler: logging.NewProgressSampler(10)}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func (b *barReporter) Update(percent float64) {
	_ = b.bar.Set(int(percent * 10))
}

func (b *barReporter) Finish(ok bool) {
	if ok {
		_ = b.bar.Finish()
		return
	}
	_ = b.bar.Exit()
}

type logReporter struct {
	log     *slog.Logger
	desc    string
	sampler *logging.ProgressSampler
}

func (l *logReporter) Update(percent float64) {
	if l.sampler.ShouldLog(percent) {
		l.log.Info(l.desc, "percent", int(percent))
	}
}

func (l *logReporter) Finish(bool) {}
