package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/skratchdot/open-golang/open"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/jeebie-shelf/shelf/cover"
	"github.com/valerio/jeebie-shelf/shelf/web"
)

func serveCommand() cli.Command {
	return cli.Command{
		Name:  "serve",
		Usage: "Serve the library over HTTP",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "addr",
				Value:  "127.0.0.1:8080",
				Usage:  "Listen address",
				EnvVar: "SHELF_ADDR",
			},
			cli.BoolFlag{
				Name:  "open",
				Usage: "Open the library in a browser once the server is up",
			},
			cli.StringFlag{
				Name:  "display",
				Value: "none",
				Usage: "Surface for launched sessions: sdl2 or none",
			},
			cli.IntFlag{
				Name:  "frames",
				Value: 3600,
				Usage: "Frames a launched session runs before stopping (0 = until closed)",
			},
			cli.IntFlag{
				Name:  "cover-frames",
				Value: cover.DefaultWarmupFrames,
				Usage: "Frames to run before capturing a cover",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	// Concurrent sessions would share one tty and the process-wide logger.
	if c.String("display") == "terminal" {
		return errors.New("--display terminal is only supported by play; use sdl2 or none")
	}
	st, err := openStore(c)
	if err != nil {
		return err
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
		slog.Warn("Headless sessions without a frame limit only end when the engine stops")
	}

	opts := sessionOptions{
		store:      st,
		config:     configStore(c, st),
		surface:    surface,
		frameLimit: uint64(frames),
	}
	lib, sessions := newLibrary(st, c.Int("cover-frames"), opts.starter())
	srv := web.NewServer(lib)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			slog.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return web.ListenAndServe(ctx, c.String("addr"), srv, func(addr string) {
			if !c.Bool("open") {
				return
			}
			url := browserURL(addr)
			if err := open.Start(url); err != nil {
				slog.Warn("Failed to open browser", "url", url, "error", err)
			}
		})
	})

	err = g.Wait()
	if active := sessions.Active(); len(active) > 0 {
		slog.Info("Waiting for sessions to finish", "count", len(active))
	}
	sessions.Wait()
	return err
}

// browserURL turns a listen address into something a browser can reach.
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
