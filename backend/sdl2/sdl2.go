//go:build sdl2

// Package sdl2 renders the emulator's framebuffer through go-sdl2 bindings.
// Building it requires the SDL2 development libraries installed; default
// builds skip this and fall back to the stub in sdl2_stub.go.
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pixelforge/dmgcore/dmg"
	"github.com/pixelforge/dmgcore/dmg/memory"
	"github.com/pixelforge/dmgcore/dmg/video"
)

const (
	windowWidth  = video.FramebufferWidth * pixelScale
	windowHeight = video.FramebufferHeight * pixelScale
	pixelScale   = 4
)

// shadeGray maps a BGP-mapped shade (0 lightest, 3 darkest) to an 8-bit
// grayscale level, matching the real DMG panel's four tones.
var shadeGray = [4]uint8{0xFF, 0xAA, 0x55, 0x00}

// Renderer drives the emulator against an SDL2 window, texture, and
// renderer, translating key events directly to joypad presses/releases.
type Renderer struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	emulator *dmg.Emulator
	running  bool
}

// New creates the SDL2 window/renderer/texture bound to emu.
func New(emu *dmg.Emulator) (*Renderer, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl2: initializing SDL2: %w", err)
	}

	window, err := sdl.CreateWindow("dmgcore", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		windowWidth, windowHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth, video.FramebufferHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating texture: %w", err)
	}

	slog.Info("sdl2 backend initialized", "width", windowWidth, "height", windowHeight)
	return &Renderer{window: window, renderer: renderer, texture: texture, emulator: emu, running: true}, nil
}

// Run blocks, rendering one frame per RunUntilFrame call until the window
// is closed or Escape is pressed.
func (r *Renderer) Run() error {
	defer r.cleanup()

	for r.running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			r.handleEvent(event)
		}
		if !r.running {
			break
		}
		r.emulator.RunUntilFrame()
		r.draw()
	}
	return nil
}

func (r *Renderer) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		r.running = false
	case *sdl.KeyboardEvent:
		switch e.Type {
		case sdl.KEYDOWN:
			r.handleKeyDown(e.Keysym.Sym)
		case sdl.KEYUP:
			r.handleKeyUp(e.Keysym.Sym)
		}
	}
}

func (r *Renderer) handleKeyDown(key sdl.Keycode) {
	switch key {
	case sdl.K_ESCAPE:
		r.running = false
	case sdl.K_RETURN:
		r.emulator.PressButton(memory.ButtonStart)
	case sdl.K_RSHIFT, sdl.K_LSHIFT:
		r.emulator.PressButton(memory.ButtonSelect)
	case sdl.K_z:
		r.emulator.PressButton(memory.ButtonA)
	case sdl.K_x:
		r.emulator.PressButton(memory.ButtonB)
	case sdl.K_UP:
		r.emulator.PressDirection(memory.ButtonUp)
	case sdl.K_DOWN:
		r.emulator.PressDirection(memory.ButtonDown)
	case sdl.K_LEFT:
		r.emulator.PressDirection(memory.ButtonLeft)
	case sdl.K_RIGHT:
		r.emulator.PressDirection(memory.ButtonRight)
	}
}

func (r *Renderer) handleKeyUp(key sdl.Keycode) {
	switch key {
	case sdl.K_RETURN:
		r.emulator.ReleaseButton(memory.ButtonStart)
	case sdl.K_RSHIFT, sdl.K_LSHIFT:
		r.emulator.ReleaseButton(memory.ButtonSelect)
	case sdl.K_z:
		r.emulator.ReleaseButton(memory.ButtonA)
	case sdl.K_x:
		r.emulator.ReleaseButton(memory.ButtonB)
	case sdl.K_UP:
		r.emulator.ReleaseDirection(memory.ButtonUp)
	case sdl.K_DOWN:
		r.emulator.ReleaseDirection(memory.ButtonDown)
	case sdl.K_LEFT:
		r.emulator.ReleaseDirection(memory.ButtonLeft)
	case sdl.K_RIGHT:
		r.emulator.ReleaseDirection(memory.ButtonRight)
	}
}

func (r *Renderer) draw() {
	fb := r.emulator.Framebuffer()
	const bytesPerRow = video.FramebufferWidth / 4

	pixels := make([]byte, video.FramebufferWidth*video.FramebufferHeight*4)
	for y := 0; y < video.FramebufferHeight; y++ {
		rowOffset := y * bytesPerRow
		for x := 0; x < video.FramebufferWidth; x++ {
			b := fb[rowOffset+x/4]
			shift := uint(3-(x%4)) * 2
			shade := (b >> shift) & 0x03
			gray := shadeGray[shade]

			dst := (y*video.FramebufferWidth + x) * 4
			pixels[dst] = 0xFF   // alpha
			pixels[dst+1] = gray // blue
			pixels[dst+2] = gray // green
			pixels[dst+3] = gray // red
		}
	}

	r.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.FramebufferWidth*4)
	r.renderer.Clear()
	r.renderer.Copy(r.texture, nil, nil)
	r.renderer.Present()
}

func (r *Renderer) cleanup() {
	slog.Info("sdl2 backend stopping")
	if r.texture != nil {
		r.texture.Destroy()
	}
	if r.renderer != nil {
		r.renderer.Destroy()
	}
	if r.window != nil {
		r.window.Destroy()
	}
	sdl.Quit()
}
