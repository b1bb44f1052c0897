package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gosuri/uiprogress"
	"github.com/mattn/go-isatty"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

// progressBar shows checker progress on a terminal.
type progressBar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar

	mu   sync.Mutex
	step string
}

func newProgressBar(w io.Writer, label string, total int) *progressBar {
	pb := &progressBar{progress: uiprogress.New()}
	pb.progress.SetOut(w)
	pb.progress.Start()

	pb.bar = pb.progress.AddBar(total).AppendCompleted().PrependElapsed()
	pb.bar.PrependFunc(func(b *uiprogress.Bar) string {
		pb.mu.Lock()
		defer pb.mu.Unlock()
		return fmt.Sprintf("%s %-14s", label, pb.step)
	})
	return pb
}

// Update is a core.ProgressCallback.
func (pb *progressBar) Update(p core.Progress) {
	pb.mu.Lock()
	pb.step = p.Step
	pb.mu.Unlock()
	_ = pb.bar.Set(p.Current)
}

func (pb *progressBar) Stop() {
	pb.progress.Stop()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
