package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli"

	"github.com/valerio/jeebie-shelf/shelf/config"
	"github.com/valerio/jeebie-shelf/shelf/cover"
	"github.com/valerio/jeebie-shelf/shelf/launcher"
)

// noSessions backs the library for commands that never play anything.
func noSessions(romPath string) (launcher.Runner, error) {
	return nil, fmt.Errorf("sessions are not available from this command: %s", romPath)
}

func importCommand() cli.Command {
	return cli.Command{
		Name:      "import",
		Usage:     "Add ROMs, or every ROM inside .zip, .7z and .rar archives",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "cover-frames",
				Value: cover.DefaultWarmupFrames,
				Usage: "Frames to run before capturing a cover",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				cli.ShowCommandHelp(c, "import")
				return errors.New("nothing to import")
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			lib, _ := newLibrary(st, c.Int("cover-frames"), noSessions)

			failed := 0
			for _, r := range lib.Import(c.Args()) {
				switch {
				case r.Err != nil:
					failed++
					fmt.Printf("FAIL  %s %s: %v\n", r.Source, r.Filename, r.Err)
				case r.CoverURL == "":
					fmt.Printf("OK    %s (no cover)\n", r.Filename)
				default:
					fmt.Printf("OK    %s\n", r.Filename)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d imports failed", failed)
			}
			return nil
		},
	}
}

func coversCommand() cli.Command {
	return cli.Command{
		Name:  "covers",
		Usage: "Regenerate cover images",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "missing",
				Usage: "Only generate covers for ROMs without one",
			},
			cli.IntFlag{
				Name:  "jobs",
				Value: runtime.NumCPU(),
				Usage: "Covers generated in parallel",
			},
			cli.IntFlag{
				Name:  "frames",
				Value: cover.DefaultWarmupFrames,
				Usage: "Frames to run before capturing a cover",
			},
		},
		Action: func(c *cli.Context) error {
			st, err := openStore(c)
			if err != nil {
				return err
			}
			lib, _ := newLibrary(st, c.Int("frames"), noSessions)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			results, err := lib.RegenerateCovers(ctx, c.Bool("missing"), c.Int("jobs"))
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Printf("FAIL  %s: %v\n", r.ROM, r.Err)
					continue
				}
				fmt.Printf("OK    %s\n", r.Cover)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d covers failed", failed, len(results))
			}
			return nil
		},
	}
}

func pruneCommand() cli.Command {
	return cli.Command{
		Name:  "prune",
		Usage: "Delete the oldest screenshots",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "keep",
				Value: 100,
				Usage: "Screenshots to keep",
			},
		},
		Action: func(c *cli.Context) error {
			st, err := openStore(c)
			if err != nil {
				return err
			}
			removed, err := st.PruneScreenshots(c.Int("keep"))
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d screenshots\n", removed)
			return nil
		},
	}
}

func configCommand() cli.Command {
	return cli.Command{
		Name:  "config",
		Usage: "Show or change the session config",
		Subcommands: []cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective config",
				Action: func(c *cli.Context) error {
					st, err := openStore(c)
					if err != nil {
						return err
					}
					cfgs := configStore(c, st)
					fmt.Printf("# %s\n", cfgs.Path())
					return toml.NewEncoder(os.Stdout).Encode(cfgs.LoadOrDefault())
				},
			},
			{
				Name:  "set",
				Usage: "Change config values",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "scale", Usage: "Window scale"},
					cli.IntFlag{Name: "fps", Usage: "Target frames per second"},
					cli.BoolFlag{Name: "fullscreen", Usage: "Start fullscreen"},
					cli.BoolFlag{Name: "windowed", Usage: "Start windowed"},
					cli.Float64Flag{Name: "volume", Usage: "Volume between 0 and 1"},
				},
				Action: runConfigSet,
			},
		},
	}
}

func runConfigSet(c *cli.Context) error {
	if c.Bool("fullscreen") && c.Bool("windowed") {
		return errors.New("--fullscreen and --windowed are exclusive")
	}
	st, err := openStore(c)
	if err != nil {
		return err
	}
	cfgs := configStore(c, st)
	cfg := cfgs.LoadOrDefault()
	cfg = applyConfigFlags(c, cfg)
	if err := cfgs.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", cfgs.Path())
	return nil
}

func applyConfigFlags(c *cli.Context, cfg config.Session) config.Session {
	if c.IsSet("scale") {
		cfg.WindowScale = c.Int("scale")
	}
	if c.IsSet("fps") {
		cfg.TargetFPS = c.Int("fps")
	}
	if c.Bool("fullscreen") {
		cfg.Fullscreen = true
	}
	if c.Bool("windowed") {
		cfg.Fullscreen = false
	}
	if c.IsSet("volume") {
		cfg.Volume = c.Float64("volume")
	}
	return cfg
}
