package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli"

	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/media"
	"github.com/valerio/jeebie-shelf/shelf/rom"
)

func playCommand() cli.Command {
	return cli.Command{
		Name:      "play",
		Usage:     "Run one ROM in the foreground",
		ArgsUsage: "<ROM file>",
		Description: "Hotkeys: " + display.HelpText + "\n\n" +
			"   A bare filename is looked up in the media root's roms directory.",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "display",
				Value: "terminal",
				Usage: "Surface: terminal, sdl2 or none",
			},
			cli.IntFlag{
				Name:  "frames",
				Usage: "Stop after this many frames (0 = until closed; required with --display none)",
			},
		},
		Action: runPlay,
	}
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowCommandHelp(c, "play")
		return errors.New("expected exactly one ROM")
	}
	st, err := openStore(c)
	if err != nil {
		return err
	}

	romPath := c.Args().First()
	if !rom.Allowed(romPath) {
		return fmt.Errorf("%s is not a .gb or .gbc file", romPath)
	}
	if st.Exists(romPath) {
		romPath, _ = st.ROMPath(romPath)
	}

	surface, err := displayOpener(c.String("display"))
	if err != nil {
		return err
	}
	frames := c.Int("frames")
	if frames < 0 {
		return errors.New("--frames must not be negative")
	}
	if surface == nil && frames == 0 {
		return errors.New("headless play requires --frames with a positive value")
	}

	opts := sessionOptions{
		store:      st,
		config:     configStore(c, st),
		surface:    surface,
		frameLimit: uint64(frames),
	}
	if slots, err := st.Slots(media.Slug(romPath)); err == nil {
		for _, slot := range slots {
			if slot.Populated {
				slog.Info("Save slot available", "slot", slot.Number, "saved_at", slot.SavedAt.Format(time.DateTime))
			}
		}
	}

	m, err := opts.start(romPath)
	if err != nil {
		return err
	}
	m.Run()

	slog.Info("Play finished", "rom", romPath, "reason", m.StopReason(), "frames", m.FrameCount())
	return nil
}
