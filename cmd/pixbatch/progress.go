package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"pixbatch/internal/batch"
	"pixbatch/internal/textutil"
)

// runProgress renders controller progress events. On a terminal it drives a
// progress bar; otherwise it prints one line per finished item so piped
// output stays readable.
type runProgress struct {
	out         io.Writer
	interactive bool

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	seen map[batch.ItemID]batch.Status
}

func newRunProgress(out io.Writer, interactive bool) *runProgress {
	return &runProgress{out: out, interactive: interactive, seen: make(map[batch.ItemID]batch.Status)}
}

func (p *runProgress) OnEvent(e batch.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case batch.EventProgress:
		p.onProgress(e.Run)
	case batch.EventItemUpdated:
		if p.interactive {
			if e.Item.Status == batch.StatusConverting && p.bar != nil {
				p.bar.Describe(textutil.Truncate(textutil.DisplayTitle(e.Item.Source.Name), 32))
			}
			return
		}
		if p.seen[e.Item.ID] == e.Item.Status {
			return
		}
		p.seen[e.Item.ID] = e.Item.Status
		switch e.Item.Status {
		case batch.StatusDone:
			fmt.Fprintf(p.out, "done   %s\n", e.Item.Source.Name)
		case batch.StatusError:
			fmt.Fprintf(p.out, "failed %s: %s\n", e.Item.Source.Name, e.Item.ErrorMessage)
		}
	}
}

func (p *runProgress) onProgress(run batch.RunState) {
	if !p.interactive {
		return
	}
	if !run.Running {
		if p.bar != nil {
			_ = p.bar.Finish()
			fmt.Fprintln(p.out)
			p.bar = nil
		}
		return
	}
	if p.bar == nil || run.Current == 0 {
		p.bar = progressbar.NewOptions(run.Total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(50*time.Millisecond),
			progressbar.OptionSetPredictTime(false),
		)
	}
	_ = p.bar.Set(run.Current)
}
