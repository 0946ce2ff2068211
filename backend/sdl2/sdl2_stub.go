//go:build !sdl2

package sdl2

import (
	"errors"

	"github.com/pixelforge/dmgcore/dmg"
)

// Renderer is a stand-in used when the binary is built without the sdl2
// build tag (the default — SDL2's development libraries aren't assumed to
// be present on the build host).
type Renderer struct{}

// New always fails; build with `-tags sdl2` for the real SDL2 backend.
func New(emu *dmg.Emulator) (*Renderer, error) {
	return nil, errors.New("sdl2: backend not available in this build (rebuild with -tags sdl2)")
}

// Run always fails for the stub renderer.
func (r *Renderer) Run() error {
	return errors.New("sdl2: backend not available in this build (rebuild with -tags sdl2)")
}
