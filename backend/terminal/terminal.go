// Package terminal renders the emulator's framebuffer to a tcell screen and
// forwards keyboard input to the joypad, for a host with no GPU backend.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pixelforge/dmgcore/dmg"
	"github.com/pixelforge/dmgcore/dmg/memory"
	"github.com/pixelforge/dmgcore/dmg/video"
)

const (
	// Terminal characters are taller than wide, so the width is scaled more
	// than the height to approximate the real 160x144 aspect ratio.
	scaleX = 2
	scaleY = 1

	frameTime = time.Second / 60
)

// shadeChars maps a BGP-mapped shade (0 lightest, 3 darkest) directly to a
// terminal glyph — the framebuffer already carries the post-palette shade,
// so no further lookup is needed here.
var shadeChars = []rune{' ', '░', '▒', '█'}

// Renderer drives the emulator one frame per tick against a tcell screen.
type Renderer struct {
	screen   tcell.Screen
	emulator *dmg.Emulator
	running  bool
}

// New initializes a tcell screen bound to emu.
func New(emu *dmg.Emulator) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}
	return &Renderer{screen: screen, emulator: emu, running: true}, nil
}

// Run blocks, rendering one frame every 1/60s until the user presses Escape
// or the process receives SIGINT/SIGTERM.
func (r *Renderer) Run() error {
	defer func() {
		slog.Info("terminal backend stopping")
		r.screen.Fini()
	}()

	r.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	r.screen.Clear()

	go r.handleInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for r.running {
		select {
		case <-ticker.C:
			r.emulator.RunUntilFrame()
			r.render()
			r.screen.Show()
		case <-signals:
			r.running = false
			slog.Info("received signal to stop")
			return nil
		}
	}
	return nil
}

func (r *Renderer) handleInput() {
	for r.running {
		ev := r.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			r.handleKey(ev)
		case *tcell.EventResize:
			r.screen.Sync()
		}
	}
}

// keyHoldTime is how long a button stays "pressed" after a terminal key
// event, since terminals report key-down only — there is no key-up to pair
// it with, unlike the sdl2 backend's native press/release events.
const keyHoldTime = 150 * time.Millisecond

func (r *Renderer) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape {
		r.running = false
		return
	}

	switch ev.Rune() {
	case 'z':
		r.tapButton(memory.ButtonA)
	case 'x':
		r.tapButton(memory.ButtonB)
	case 'a':
		r.tapButton(memory.ButtonSelect)
	case 's':
		r.tapButton(memory.ButtonStart)
	}
	switch ev.Key() {
	case tcell.KeyUp:
		r.tapDirection(memory.ButtonUp)
	case tcell.KeyDown:
		r.tapDirection(memory.ButtonDown)
	case tcell.KeyLeft:
		r.tapDirection(memory.ButtonLeft)
	case tcell.KeyRight:
		r.tapDirection(memory.ButtonRight)
	}
}

func (r *Renderer) tapButton(btn memory.Button) {
	r.emulator.PressButton(btn)
	time.AfterFunc(keyHoldTime, func() { r.emulator.ReleaseButton(btn) })
}

func (r *Renderer) tapDirection(btn memory.Button) {
	r.emulator.PressDirection(btn)
	time.AfterFunc(keyHoldTime, func() { r.emulator.ReleaseDirection(btn) })
}

func (r *Renderer) render() {
	fb := r.emulator.Framebuffer()
	r.screen.Clear()

	const bytesPerRow = video.FramebufferWidth / 4

	for y := 0; y < video.FramebufferHeight; y++ {
		rowOffset := y * bytesPerRow
		for x := 0; x < video.FramebufferWidth; x++ {
			b := fb[rowOffset+x/4]
			shift := uint(3-(x%4)) * 2
			shade := (b >> shift) & 0x03

			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			char := shadeChars[shade]

			screenX := x * scaleX
			screenY := y * scaleY
			for sx := 0; sx < scaleX; sx++ {
				r.screen.SetContent(screenX+sx, screenY, char, nil, style)
			}
		}
	}
}
