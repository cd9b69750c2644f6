// Package progrock provides the Progrock implementation of ports.Telemetry.
package progrock

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Recorder implements ports.Telemetry on a set of progrock writers.
type Recorder struct {
	w   *fanout
	rec *progrock.Recorder
	seq atomic.Uint64
}

// New creates a Recorder with no output until a writer is attached.
func New() *Recorder {
	return NewRecorder()
}

// NewRecorder creates a Recorder forwarding to the given writers.
func NewRecorder(writers ...progrock.Writer) *Recorder {
	w := &fanout{writers: writers}
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Attach prints completed vertices to out until the returned func is called.
func (r *Recorder) Attach(out io.Writer) (detach func()) {
	return r.w.add(NewConsole(out))
}

// Record starts a new vertex. Vertices with the same name stay distinct.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := &ports.VertexConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	var vopts []progrock.VertexOpt
	if cfg.Internal {
		vopts = append(vopts, progrock.Internal())
	}

	d := digest.FromString(fmt.Sprintf("%d:%s", r.seq.Add(1), name))
	v := &Vertex{vertex: r.rec.Vertex(d, name, vopts...)}
	return ports.ContextWithVertex(ctx, v), v
}

// Recorded returns the number of vertices started so far.
func (r *Recorder) Recorded() int { return int(r.seq.Load()) } //nolint:gosec // counts stay small

// Close flushes and closes every attached writer.
func (r *Recorder) Close() error {
	if err := r.w.Close(); err != nil {
		return zerr.Wrap(err, "failed to close progress recorder")
	}
	return nil
}
