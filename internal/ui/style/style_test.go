package style_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/subdiv/internal/ui/style"
)

func TestColorProfile_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, style.ColorProfile())
}

func TestStyles_PlainWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	s := style.New(style.NewRenderer(&buf))
	assert.Equal(t, style.Check, s.Good.Render(style.Check))
}
