package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/pixelforge/dmgcore/backend/sdl2"
	"github.com/pixelforge/dmgcore/backend/terminal"
	"github.com/pixelforge/dmgcore/dmg"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A cycle-accurate Game Boy (DMG) emulator core"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Render backend: terminal or sdl2",
			Value: "terminal",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a render backend",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu, err := dmg.NewWithFile(romPath)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	if c.Bool("headless") {
		return runHeadless(emu, c.Int("frames"))
	}

	switch c.String("backend") {
	case "terminal":
		renderer, err := terminal.New(emu)
		if err != nil {
			return err
		}
		return renderer.Run()
	case "sdl2":
		renderer, err := sdl2.New(emu)
		if err != nil {
			return err
		}
		return renderer.Run()
	default:
		return fmt.Errorf("unknown backend %q (want terminal or sdl2)", c.String("backend"))
	}
}

func runHeadless(emu *dmg.Emulator, frames int) error {
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	slog.Info("running headless", "frames", frames)
	for i := 0; i < frames; i++ {
		emu.RunUntilFrame()
		if (i+1)%60 == 0 {
			slog.Info("frame progress", "completed", i+1, "total", frames)
		}
	}
	slog.Info("headless run complete", "frames", frames, "instructions", emu.InstructionCount())
	return nil
}
