package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/logger"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// captureStderr captures output written to os.Stderr during the execution of fn.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	original := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = original })

	done := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	require.NoError(t, w.Close())
	output := <-done
	require.NoError(t, r.Close())
	return output
}

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	lg := logger.New()
	lg.SetOutput(&buf)
	return lg, &buf
}

func TestLogger_WritesToStderr(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	output := captureStderr(t, func() {
		lg := logger.New()
		lg.Info("plan rebuilt")
		lg.Warn("unsupported topology")
		lg.Error(os.ErrPermission)
	})

	assert.Equal(t, "plan rebuilt\n"+
		"! unsupported topology\n"+
		"✗ Error: permission denied\n", output)
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard error",
			err:  errors.New("device lost"),
			want: "✗ Error: device lost\n",
		},
		{
			name: "zerr chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("device lost"), "dispatch failed"),
				"refine failed",
			),
			want: "✗ Error: refine failed\n\n" +
				"  Caused by:\n" +
				"    → dispatch failed\n" +
				"    → device lost\n",
		},
		{
			name: "stdlib wrapping stops the chain",
			err:  zerr.Wrap(fmt.Errorf("open cube.obj: %w", os.ErrNotExist), "failed to read mesh"),
			want: "✗ Error: failed to read mesh\n\n" +
				"  Caused by:\n" +
				"    → open cube.obj: file does not exist\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestFormatChain(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		want     string
	}{
		{"empty", nil, ""},
		{"single", []string{"refine failed"}, "Error: refine failed"},
		{"multiline main", []string{"compute failure\nrefine failed"}, "Error: compute failure\n       refine failed"},
		{
			"multiline cause",
			[]string{"frame failed", "compute failure\ndevice lost"},
			"Error: frame failed\n\n  Caused by:\n    → compute failure\n      device lost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatChain(tt.messages))
		})
	}
}

func TestCollectChain(t *testing.T) {
	assert.Equal(t, []string{"outer", "inner"}, logger.CollectChain(zerr.Wrap(zerr.New("inner"), "outer")))
	assert.Equal(t, []string{"plain"}, logger.CollectChain(errors.New("plain")))
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	lg := slog.New(logger.NewPrettyHandler(&buf, nil)).With("mesh", "cube").WithGroup("frame")

	lg.Debug("hidden")
	lg.Info("drawn", "n", 2)
	assert.Equal(t, "drawn frame.mesh=cube frame.n=2\n", buf.String())
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New()
	lg.SetOutput(&buf)

	lg.SetLevel(domain.LogLevelWarn)
	lg.Info("hidden")
	lg.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	lg.SetLevel(domain.LogLevelDebug)
	lg.Info("visible again")
	assert.Contains(t, buf.String(), "visible again")
}

func TestLogger_SetOutputIsConcurrent(t *testing.T) {
	lg := logger.New()
	var a, b bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			lg.Info("frame")
		}
	}()
	lg.SetOutput(&a)
	<-done
	lg.SetOutput(&b)
	lg.Info("last")

	assert.Equal(t, 1, strings.Count(b.String(), "last"))
}
