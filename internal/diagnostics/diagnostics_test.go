package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metorex-lang/metorex/internal/token"
)

func TestNewSyntaxErrorRendersPosition(t *testing.T) {
	d := New(SyntaxError, "unexpected token", token.Position{Line: 3, Column: 5})
	assert.Equal(t, "SyntaxError: unexpected token at 3:5", d.String())
}

func TestNewUncaughtStampsIncidentID(t *testing.T) {
	d := NewUncaught("RuntimeError", "boom", token.Position{Line: 1, Column: 1}, nil)
	assert.Equal(t, UncaughtException, d.Kind)
	assert.NotEmpty(t, d.IncidentID)
	assert.Contains(t, d.String(), "Incident: "+d.IncidentID)
}

func TestUncaughtRendersFramesInnermostToOutermost(t *testing.T) {
	frames := []Frame{
		{Name: "helper", Line: 10, Column: 1},
		{Name: "main", Line: 2, Column: 1},
	}
	d := NewUncaught("RuntimeError", "boom", token.Position{Line: 10, Column: 1}, frames)
	s := d.String()
	assert.Contains(t, s, "at main:10 (called helper)")
}

func TestWithCauseChainsMessages(t *testing.T) {
	root := New(RuntimeError, "disk full", token.Position{})
	d := New(UncaughtException, "save failed", token.Position{}).WithCause(root)
	assert.True(t, strings.Contains(d.String(), "Caused by: disk full"))
}

func TestBoundsMessageHumanizesLargeIndices(t *testing.T) {
	msg := BoundsMessage("array", 1000000, 5)
	assert.Equal(t, "array index 1,000,000 out of range (length 5)", msg)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SyntaxError", SyntaxError.String())
	assert.Equal(t, "TypeError", TypeError.String())
	assert.Equal(t, "RuntimeError", RuntimeError.String())
	assert.Equal(t, "UncaughtException", UncaughtException.String())
}
