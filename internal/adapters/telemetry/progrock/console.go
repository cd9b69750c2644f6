package progrock

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/subdiv/internal/ui/style"
	"go.trai.ch/zerr"
)

// Console is a progrock.Writer printing one line per completed vertex.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styles style.Styles
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:    out,
		styles: style.New(style.NewRenderer(out)),
	}
}

// WriteStatus prints the vertices of u that completed with this update.
func (c *Console) WriteStatus(u *progrock.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range u.GetVertexes() {
		if v.GetInternal() || v.GetCompleted() == nil {
			continue
		}
		var line string
		switch {
		case v.Error != nil:
			line = fmt.Sprintf("%s %s: %s", c.styles.Bad.Render(style.Cross), v.GetName(), v.GetError())
		case v.GetCached():
			line = fmt.Sprintf("%s %s (cached)", c.styles.Border.Render(style.Dot), v.GetName())
		default:
			line = fmt.Sprintf("%s %s", c.styles.Good.Render(style.Check), v.GetName())
		}
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return zerr.Wrap(err, "failed to write progress")
		}
	}
	return nil
}

// Close does nothing.
func (c *Console) Close() error { return nil }

// fanout forwards updates to a changing set of writers.
type fanout struct {
	mu      sync.Mutex
	writers []progrock.Writer
}

func (f *fanout) add(w progrock.Writer) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writers = append(f.writers, w)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, existing := range f.writers {
			if existing == w {
				f.writers = append(f.writers[:i], f.writers[i+1:]...)
				return
			}
		}
	}
}

func (f *fanout) WriteStatus(u *progrock.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs error
	for _, w := range f.writers {
		if err := w.WriteStatus(u); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to forward status"))
		}
	}
	return errs
}

func (f *fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs error
	for _, w := range f.writers {
		if err := w.Close(); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to close status writer"))
		}
	}
	f.writers = nil
	return errs
}
