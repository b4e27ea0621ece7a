package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/valerio/jeebie-shelf/shelf/config"
	"github.com/valerio/jeebie-shelf/shelf/cover"
	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/display/sdl2"
	"github.com/valerio/jeebie-shelf/shelf/display/terminal"
	"github.com/valerio/jeebie-shelf/shelf/engine/testpattern"
	"github.com/valerio/jeebie-shelf/shelf/launcher"
	"github.com/valerio/jeebie-shelf/shelf/library"
	"github.com/valerio/jeebie-shelf/shelf/session"
	"github.com/valerio/jeebie-shelf/shelf/store"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running shelf", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "shelf"
	app.Usage = "a Game Boy ROM library with covers, save slots and a web front end"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "media",
			Value:  "media",
			Usage:  "Media root holding roms, covers, screenshots, recordings and states",
			EnvVar: "SHELF_MEDIA",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Session config file (default: <media>/config.toml)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		level := slog.LevelInfo
		if c.GlobalBool("debug") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
	app.Commands = []cli.Command{
		serveCommand(),
		playCommand(),
		importCommand(),
		coversCommand(),
		pruneCommand(),
		configCommand(),
	}
	return app
}

// openStore returns the store for --media with its directories in place.
func openStore(c *cli.Context) (*store.Store, error) {
	st, err := store.New(c.GlobalString("media"))
	if err != nil {
		return nil, err
	}
	if err := st.EnsureLayout(); err != nil {
		return nil, err
	}
	return st, nil
}

func configStore(c *cli.Context, st *store.Store) *config.Store {
	path := c.GlobalString("config")
	if path == "" {
		path = filepath.Join(st.Layout().Root, config.Filename)
	}
	return config.NewStore(path)
}

// displayOpener maps a --display value to a surface. "none" runs headless.
func displayOpener(name string) (display.Opener, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "terminal":
		return terminal.Open, nil
	case "sdl2":
		return sdl2.Open, nil
	default:
		return nil, fmt.Errorf("unknown display %q (want terminal, sdl2 or none)", name)
	}
}

// sessionOptions holds what every session started by this process shares.
type sessionOptions struct {
	store      *store.Store
	config     *config.Store
	surface    display.Opener
	frameLimit uint64
}

func (o sessionOptions) start(romPath string) (*session.Manager, error) {
	return session.Start(session.Options{
		ROMPath:    romPath,
		Engine:     testpattern.Factory,
		Artifacts:  o.store,
		Config:     o.config,
		Surface:    o.surface,
		FrameLimit: o.frameLimit,
	})
}

func (o sessionOptions) starter() launcher.StartFunc {
	return func(romPath string) (launcher.Runner, error) {
		m, err := o.start(romPath)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func newLibrary(st *store.Store, coverFrames int, start launcher.StartFunc) (*library.Library, *launcher.Launcher) {
	l := launcher.New(start)
	covers := cover.NewGenerator(testpattern.Factory, st, coverFrames)
	return library.New(st, covers, l), l
}
