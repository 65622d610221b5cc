// Package focus runs Pomodoro timers and counts completed focus sessions.
package focus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"flynesis-planner/internal/domain"
)

const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// Recorder persists a finished work phase.
type Recorder interface {
	RecordFocus(ctx context.Context, session domain.FocusSession) bool
}

type Config struct {
	Work  time.Duration
	Break time.Duration
}

func (c Config) withDefaults() Config {
	if c.Work < time.Minute {
		c.Work = DefaultWork
	}
	if c.Break < time.Minute {
		c.Break = DefaultBreak
	}
	return c
}

// State is a point-in-time copy of a timer.
type State struct {
	Phase     Phase
	Remaining time.Duration
	Running   bool
	TaskID    string
}

// Clock renders the remaining time as MM:SS.
func (s State) Clock() string {
	secs := int(s.Remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Timer counts down one phase at a time. It stops itself when a phase ends;
// the caller starts the next phase explicitly.
type Timer struct {
	mu        sync.Mutex
	cfg       Config
	recorder  Recorder
	now       func() time.Time
	onPhase   func(ended Phase, next State)
	phase     Phase
	remaining int
	taskID    string
	stop      chan struct{}
	closed    bool
}

func NewTimer(recorder Recorder, cfg Config) *Timer {
	cfg = cfg.withDefaults()
	return &Timer{
		cfg:       cfg,
		recorder:  recorder,
		now:       time.Now,
		phase:     PhaseWork,
		remaining: int(cfg.Work / time.Second),
	}
}

// OnPhaseEnd registers fn to run after a phase ends. fn runs outside the
// timer's lock and may call back into the timer.
func (t *Timer) OnPhaseEnd(fn func(ended Phase, next State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPhase = fn
}

// SetTask links the next recorded session to a task. Empty means none.
func (t *Timer) SetTask(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taskID = taskID
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Timer) stateLocked() State {
	return State{
		Phase:     t.phase,
		Remaining: time.Duration(t.remaining) * time.Second,
		Running:   t.stop != nil,
		TaskID:    t.taskID,
	}
}

// Start begins counting down. It is a no-op when already running or closed.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.stop != nil {
		return false
	}
	t.stop = make(chan struct{})
	go t.run(time.NewTicker(time.Second), t.stop)
	return true
}

func (t *Timer) run(ticker *time.Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tickFrom(stop)
		}
	}
}

// stopLocked cancels the ticker goroutine if one is running.
func (t *Timer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Reset stops the timer and rewinds to a fresh work phase.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.phase = PhaseWork
	t.remaining = int(t.cfg.Work / time.Second)
}

// Close stops the timer for good.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
}

// tickFrom is the ticker's step. A tick that raced with Pause or Reset is
// dropped. A nil stop advances a paused timer.
func (t *Timer) tickFrom(stop chan struct{}) {
	t.mu.Lock()
	if t.stop != stop {
		t.mu.Unlock()
		return
	}
	t.advanceLocked()
}

// advanceLocked must be called with mu held and releases it.
func (t *Timer) advanceLocked() {
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.remaining > 1 {
		t.remaining--
		t.mu.Unlock()
		return
	}

	ended := t.phase
	var session *domain.FocusSession
	t.stopLocked()
	if ended == PhaseWork {
		session = &domain.FocusSession{
			TaskID:         t.taskID,
			Duration:       int(t.cfg.Work / time.Minute),
			CompletedAtISO: domain.FormatTimestamp(t.now()),
		}
		t.phase = PhaseBreak
		t.remaining = int(t.cfg.Break / time.Second)
	} else {
		t.phase = PhaseWork
		t.remaining = int(t.cfg.Work / time.Second)
	}
	next := t.stateLocked()
	recorder, onPhase := t.recorder, t.onPhase
	t.mu.Unlock()

	if session != nil && recorder != nil {
		if !recorder.RecordFocus(context.Background(), *session) {
			log.Printf("[warn] focus session of %d minutes was not saved", session.Duration)
		}
	}
	if onPhase != nil {
		onPhase(ended, next)
	}
}

// CountOn returns how many sessions completed on the local calendar date of
// ref. Sessions with unparsable timestamps are skipped.
func CountOn(sessions []domain.FocusSession, ref time.Time) int {
	y, m, d := ref.Date()
	count := 0
	for _, s := range sessions {
		completed, err := domain.ParseTimestamp(s.CompletedAtISO)
		if err != nil {
			continue
		}
		cy, cm, cd := completed.In(ref.Location()).Date()
		if cy == y && cm == m && cd == d {
			count++
		}
	}
	return count
}
