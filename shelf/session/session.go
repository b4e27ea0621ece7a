// Package session runs one ROM on one engine from boot to teardown.
//
// A Manager is not safe for concurrent use: Step, Run and every operation
// must be called from the goroutine that owns the session. State and
// FrameCount may be read from anywhere.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/valerio/jeebie-shelf/shelf/config"
	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/fileio"
	"github.com/valerio/jeebie-shelf/shelf/media"
	"github.com/valerio/jeebie-shelf/shelf/rom"
	"github.com/valerio/jeebie-shelf/shelf/timing"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

// DefaultWarmupFrames gives the ROM time to finish its own boot sequence
// before the session reports Running.
const DefaultWarmupFrames = 600

const defaultPauseInterval = 50 * time.Millisecond

var (
	ErrEngineStartupFailed = errors.New("engine startup failed")
	ErrInvalidState        = errors.New("operation not valid in current session state")
)

// Artifacts resolves the files a session writes.
type Artifacts interface {
	ScreenshotPath(t time.Time) string
	StatePath(slug string, slot int) (string, error)
}

// ConfigSource provides the settings read once at start.
type ConfigSource interface {
	LoadOrDefault() config.Session
}

type Options struct {
	ROMPath   string
	Engine    engine.Factory
	Artifacts Artifacts
	// Config may be nil, in which case the defaults apply.
	Config ConfigSource
	// Surface opens the display. Nil runs headless.
	Surface display.Opener
	// WarmupFrames defaults to DefaultWarmupFrames when zero. Negative
	// disables warm-up.
	WarmupFrames int
	// FrameLimit stops the session after this many frames past warm-up.
	// Zero runs until the engine or the surface ends it.
	FrameLimit uint64
	// Limiter builds the frame pacer for the configured FPS. Nil uses
	// timing.NewAdaptiveLimiter.
	Limiter func(fps int) timing.Limiter
	// PauseInterval is how long a paused Step sleeps.
	PauseInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager owns one engine handle for the lifetime of a session.
type Manager struct {
	opts    Options
	slug    string
	cfg     config.Session
	engine  engine.Engine
	surface display.Surface
	limiter timing.Limiter

	state      atomic.Int32
	frameCount atomic.Uint64
	runFrames  uint64
	reason     string
}

// Start boots the ROM and runs the warm-up frames. On failure the returned
// Manager is already Stopped and the error wraps ErrEngineStartupFailed.
func Start(opts Options) (*Manager, error) {
	if opts.WarmupFrames == 0 {
		opts.WarmupFrames = DefaultWarmupFrames
	}
	if opts.PauseInterval == 0 {
		opts.PauseInterval = defaultPauseInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Limiter == nil {
		opts.Limiter = func(fps int) timing.Limiter { return timing.NewAdaptiveLimiter(fps) }
	}

	m := &Manager{
		opts: opts,
		slug: media.Slug(opts.ROMPath),
		cfg:  config.Default(),
	}
	m.setState(Starting)
	if opts.Config != nil {
		m.cfg = opts.Config.LoadOrDefault()
	}
	m.limiter = opts.Limiter(m.cfg.TargetFPS)

	if err := m.boot(); err != nil {
		m.reason = ReasonStartupFailed
		slog.Error("Session failed to start", "rom", opts.ROMPath, "error", err)
		m.Shutdown()
		return m, err
	}

	m.setState(Running)
	m.limiter.Reset()
	slog.Info("Session running",
		"rom", opts.ROMPath,
		"warmup_frames", max(opts.WarmupFrames, 0),
		"fps", m.cfg.TargetFPS,
		"headless", m.surface == nil)
	return m, nil
}

func (m *Manager) boot() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: engine panicked: %v", ErrEngineStartupFailed, r)
		}
	}()

	e, err := m.opts.Engine.Boot(m.opts.ROMPath, engine.Options{
		Headless: m.opts.Surface == nil,
		Volume:   m.cfg.Volume,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineStartupFailed, err)
	}
	m.engine = e
	m.engine.SetSpeed(1.0)

	if m.opts.Surface != nil {
		surface, err := m.opts.Surface(display.Config{
			Title:      rom.BaseName(m.opts.ROMPath),
			Scale:      m.cfg.WindowScale,
			Fullscreen: m.cfg.Fullscreen,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to open display: %v", ErrEngineStartupFailed, err)
		}
		m.surface = surface
	}

	for i := 0; i < m.opts.WarmupFrames; i++ {
		if !m.engine.Tick() {
			return fmt.Errorf("%w: engine stopped during warm-up after %d frames", ErrEngineStartupFailed, i)
		}
		m.frameCount.Add(1)
	}
	return nil
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

// FrameCount counts every frame the engine advanced, warm-up included.
func (m *Manager) FrameCount() uint64 {
	return m.frameCount.Load()
}

// Config returns the settings the session started with.
func (m *Manager) Config() config.Session {
	return m.cfg
}

// StopReason explains why the session stopped. It is empty while running.
func (m *Manager) StopReason() string {
	if m.State() != Stopped {
		return ""
	}
	return m.reason
}

func (m *Manager) active() bool {
	s := m.State()
	return s == Running || s == Paused
}

// Run steps the session until it stops. Shutdown always runs before Run
// returns.
func (m *Manager) Run() {
	defer m.Shutdown()
	for m.Step() {
	}
}

// Step runs one iteration of the session loop: apply pending hotkeys, then
// advance and present one frame unless paused. It returns false once the
// session has stopped. A panicking engine is logged and stops the session.
func (m *Manager) Step() (alive bool) {
	if !m.active() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", engine.ErrRuntimeFault, r)
			slog.Error("Engine runtime fault", "rom", m.opts.ROMPath, "frame", m.FrameCount(), "error", err)
			m.stop(ReasonRuntimeFault)
			alive = false
		}
	}()

	if m.surface != nil {
		cmds, open := m.surface.Poll()
		for _, cmd := range cmds {
			m.apply(cmd)
		}
		if !open && m.active() {
			m.stop(ReasonSurfaceClosed)
		}
		if !m.active() {
			return false
		}
	}

	if m.State() == Paused {
		time.Sleep(m.opts.PauseInterval)
		return true
	}

	if !m.engine.Tick() {
		m.stop(ReasonTickFailed)
		return false
	}
	m.frameCount.Add(1)
	m.runFrames++

	if m.surface != nil {
		if err := m.surface.Present(m.engine.Frame()); err != nil {
			slog.Warn("Failed to present frame", "error", err)
		}
	}

	if m.opts.FrameLimit > 0 && m.runFrames >= m.opts.FrameLimit {
		m.stop(ReasonFrameBudget)
		return false
	}

	m.limiter.WaitForNextFrame()
	return true
}

func (m *Manager) apply(cmd display.Command) {
	slog.Debug("Session hotkey", "command", cmd.String())

	var err error
	switch cmd.Kind {
	case display.TogglePause:
		if m.State() == Paused {
			err = m.Resume()
		} else {
			err = m.Pause()
		}
	case display.Screenshot:
		_, err = m.CaptureScreenshot()
	case display.SaveState:
		_, err = m.SaveState(cmd.Slot)
	case display.LoadState:
		_, err = m.LoadState(cmd.Slot)
	case display.Quit:
		m.stop(ReasonShutdown)
	}
	if err != nil {
		slog.Warn("Hotkey failed", "command", cmd.String(), "error", err)
	}
}

// Pause stops frames from advancing. Pausing a paused session does nothing.
func (m *Manager) Pause() error {
	switch m.State() {
	case Paused:
		return nil
	case Running:
		m.setState(Paused)
		slog.Info("Session paused", "frame", m.FrameCount())
		return nil
	default:
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidState, m.State())
	}
}

// Resume continues a paused session. Resuming a running session does nothing.
func (m *Manager) Resume() error {
	switch m.State() {
	case Running:
		return nil
	case Paused:
		m.setState(Running)
		m.limiter.Reset()
		slog.Info("Session resumed", "frame", m.FrameCount())
		return nil
	default:
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidState, m.State())
	}
}

// CaptureScreenshot writes the current frame to a timestamped PNG. A
// second capture within the same second replaces the first.
func (m *Manager) CaptureScreenshot() (string, error) {
	if !m.active() {
		return "", fmt.Errorf("%w: cannot capture while %s", ErrInvalidState, m.State())
	}

	path := m.opts.Artifacts.ScreenshotPath(m.opts.Now())
	if err := video.SavePNG(m.engine.Frame(), path); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	slog.Info("Screenshot saved", "path", path)
	return path, nil
}

// SaveState writes the engine state into slot, replacing what was there.
func (m *Manager) SaveState(slot int) (string, error) {
	if !m.active() {
		return "", fmt.Errorf("%w: cannot save while %s", ErrInvalidState, m.State())
	}
	path, err := m.opts.Artifacts.StatePath(m.slug, slot)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := fileio.WriteAtomic(path, m.engine.SaveState); err != nil {
		return "", fmt.Errorf("failed to save state to slot %d: %w", slot, err)
	}
	slog.Info("State saved", "slot", slot, "path", path)
	return path, nil
}

// LoadState restores the engine state from slot. An empty slot is logged
// and reported as (false, nil).
func (m *Manager) LoadState(slot int) (bool, error) {
	if !m.active() {
		return false, fmt.Errorf("%w: cannot load while %s", ErrInvalidState, m.State())
	}
	path, err := m.opts.Artifacts.StatePath(m.slug, slot)
	if err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("No saved state in slot", "slot", slot, "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open slot %d: %w", slot, err)
	}
	defer fileio.Close(f, "failed to close state file")

	if err := m.engine.LoadState(f); err != nil {
		return false, fmt.Errorf("failed to load slot %d: %w", slot, err)
	}
	slog.Info("State loaded", "slot", slot, "path", path)
	return true, nil
}

func (m *Manager) stop(reason string) {
	if m.reason == "" {
		m.reason = reason
	}
	m.Shutdown()
}

// Shutdown stops the engine without persisting and closes the surface.
// It is idempotent.
func (m *Manager) Shutdown() {
	switch m.State() {
	case ShuttingDown, Stopped:
		return
	}
	if m.reason == "" {
		m.reason = ReasonShutdown
	}
	m.setState(ShuttingDown)

	m.release()

	m.setState(Stopped)
	slog.Info("Session stopped", "rom", m.opts.ROMPath, "reason", m.reason, "frames", m.FrameCount())
}

func (m *Manager) release() {
	if m.engine != nil {
		guard("stopping engine", func() error { return m.engine.Stop(false) })
	}
	if m.surface != nil {
		guard("closing display", m.surface.Close)
	}
}

// guard runs a teardown step, logging its error or panic.
func guard(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic during shutdown", "step", step, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		slog.Warn("Shutdown step failed", "step", step, "error", err)
	}
}
