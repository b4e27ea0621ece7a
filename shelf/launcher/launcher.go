// Package launcher starts sessions in the background and keeps track of
// them so the process can wait for every one to finish before exiting.
package launcher

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runner is a started session. Run blocks until the session ends.
type Runner interface {
	Run()
}

// StartFunc starts a session for romPath. It runs on the launched
// goroutine, never on the caller's.
type StartFunc func(romPath string) (Runner, error)

// Ticket identifies one launch.
type Ticket struct {
	ID        uuid.UUID
	ROM       string
	StartedAt time.Time
}

type Launcher struct {
	start StartFunc
	now   func() time.Time

	wg     sync.WaitGroup
	mu     sync.Mutex
	active map[uuid.UUID]Ticket
}

func New(start StartFunc) *Launcher {
	return &Launcher{
		start:  start,
		now:    time.Now,
		active: make(map[uuid.UUID]Ticket),
	}
}

// Launch starts a session for romPath and returns without waiting for it
// to boot. Startup failures are logged; they never reach the caller.
func (l *Launcher) Launch(romPath string) Ticket {
	t := Ticket{ID: uuid.New(), ROM: romPath, StartedAt: l.now()}

	l.mu.Lock()
	l.active[t.ID] = t
	l.mu.Unlock()

	l.wg.Add(1)
	go l.run(t)

	slog.Info("Session launched", "ticket", t.ID, "rom", romPath)
	return t
}

func (l *Launcher) run(t Ticket) {
	defer l.wg.Done()
	defer l.finish(t)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Session panicked", "ticket", t.ID, "rom", t.ROM, "panic", fmt.Sprint(r))
		}
	}()

	r, err := l.start(t.ROM)
	if err != nil {
		slog.Error("Session failed to start", "ticket", t.ID, "rom", t.ROM, "error", err)
		return
	}
	r.Run()
}

func (l *Launcher) finish(t Ticket) {
	l.mu.Lock()
	delete(l.active, t.ID)
	l.mu.Unlock()
	slog.Info("Session finished", "ticket", t.ID, "rom", t.ROM, "duration", time.Since(t.StartedAt).Round(time.Millisecond))
}

// Active lists the sessions still running, oldest first.
func (l *Launcher) Active() []Ticket {
	l.mu.Lock()
	tickets := make([]Ticket, 0, len(l.active))
	for _, t := range l.active {
		tickets = append(tickets, t)
	}
	l.mu.Unlock()

	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].StartedAt.Equal(tickets[j].StartedAt) {
			return tickets[i].ID.String() < tickets[j].ID.String()
		}
		return tickets[i].StartedAt.Before(tickets[j].StartedAt)
	})
	return tickets
}

// Wait blocks until every launched session has finished.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
