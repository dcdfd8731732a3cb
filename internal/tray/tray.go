// Package tray provides a system tray menu for starting and ending drill
// sessions and watching the rep counter.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/drill"
)

// Tray represents the system tray application. It is an app.Listener.
type Tray struct {
	onStart func()
	onEnd   func()
	onOpen  func()
	onQuit  func()
	mu      sync.RWMutex

	active    bool
	repsLabel string
	lastLabel string

	// Menu items stored for later updates
	menuStart *systray.MenuItem
	menuEnd   *systray.MenuItem
	menuReps  *systray.MenuItem
	menuLast  *systray.MenuItem
}

// New creates a new Tray with no session running.
func New() *Tray {
	return &Tray{
		repsLabel: repsLabel(0),
		lastLabel: lastLabel(nil),
	}
}

// OnStart sets the callback for the Start Session item.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnEnd sets the callback for the End Session item.
func (t *Tray) OnEnd(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnd = fn
}

// OnOpen sets the callback for the Open Dashboard item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the Quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Courtside")
	systray.SetTooltip("Courtside drill tracker")

	t.mu.Lock()
	t.menuStart = systray.AddMenuItem("Start Session", "Start a new drill session")
	t.menuEnd = systray.AddMenuItem("End Session", "Finish the drill session")
	systray.AddSeparator()
	t.menuReps = systray.AddMenuItem(t.repsLabel, "Reps in the current session")
	t.menuReps.Disable()
	t.menuLast = systray.AddMenuItem(t.lastLabel, "Result of the last session")
	t.menuLast.Disable()
	t.applyActive()
	t.mu.Unlock()

	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Courtside")

	go func() {
		for {
			select {
			case <-t.menuStart.ClickedCh:
				t.call(func() func() { return t.onStart })
			case <-t.menuEnd.ClickedCh:
				t.call(func() func() { return t.onEnd })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// call runs the callback chosen by pick outside the lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	fn := pick()
	t.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// applyActive enables the item matching the session state. Callers hold mu.
func (t *Tray) applyActive() {
	if t.menuStart == nil {
		return
	}
	if t.active {
		t.menuStart.Disable()
		t.menuEnd.Enable()
	} else {
		t.menuStart.Enable()
		t.menuEnd.Disable()
	}
}

// OnSnapshot refreshes the rep counter and session items.
func (t *Tray) OnSnapshot(s app.Snapshot) {
	active := s.State != drill.StateSummary
	label := repsLabel(s.Metrics.RepCount)

	t.mu.Lock()
	defer t.mu.Unlock()

	if label != t.repsLabel {
		t.repsLabel = label
		if t.menuReps != nil {
			t.menuReps.SetTitle(label)
		}
	}
	if active != t.active {
		t.active = active
		t.applyActive()
	}
}

// OnSessionEnd shows the result of the finished session.
func (t *Tray) OnSessionEnd(r app.SessionResult) {
	label := lastLabel(&r.Summary)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastLabel = label
	t.active = false
	if t.menuLast != nil {
		t.menuLast.SetTitle(label)
	}
	t.applyActive()
}

// SessionActive reports whether the tray shows a running session.
func (t *Tray) SessionActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Labels returns the current rep and last-session labels.
func (t *Tray) Labels() (reps, last string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.repsLabel, t.lastLabel
}

func repsLabel(n int) string {
	return fmt.Sprintf("Reps: %d", n)
}

func lastLabel(s *drill.Summary) string {
	if s == nil {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %d reps in %ds", s.Reps, s.DurationMs/1000)
}
