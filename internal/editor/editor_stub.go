//go:build !sdl

package editor

import (
	"context"
	"errors"
	"log"

	"github.com/grieferpig/zippify/internal/meter"
	"github.com/grieferpig/zippify/internal/params"
)

// Editor is the no-op stand-in used when the binary is built without the
// sdl tag. Run refuses immediately so the caller can fall back to the web
// interface or the terminal status line.
type Editor struct{}

func New(store *params.Store, m *meter.Meter, logger *log.Logger) *Editor {
	_ = store
	_ = m
	_ = logger
	return &Editor{}
}

// Supported reports whether this build carries the SDL backend.
func Supported() bool { return false }

func (e *Editor) Run(ctx context.Context) error {
	return errors.New("editor window not available in this build, rebuild with -tags sdl")
}
