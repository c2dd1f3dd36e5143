// Package gesture tells a single press of a trigger key apart from a double
// press inside the editor.
package gesture

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultKey   = "alt"
	DefaultDelay = 300 * time.Millisecond
)

type Kind int

const (
	SingleTap Kind = iota + 1
	DoubleTap
)

func (k Kind) String() string {
	switch k {
	case SingleTap:
		return "single"
	case DoubleTap:
		return "double"
	default:
		return "unknown"
	}
}

// TapMsg is sent when a gesture is recognized.
type TapMsg struct {
	Kind Kind
}

// timeoutMsg fires when the single-press window of press seq closes.
type timeoutMsg struct {
	seq int
}

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// Detector counts presses of one key. It is driven from a bubbletea update
// loop and is not safe for concurrent use.
type Detector struct {
	key   string
	delay time.Duration

	pressed   bool
	lastPress time.Time
	clicks    int

	// seq identifies the pending single-press timer. Bumping it cancels it.
	seq          int
	timerPending bool

	now  func() time.Time
	tick tickFunc
}

func New(key string, delay time.Duration) *Detector {
	d := &Detector{
		now:  time.Now,
		tick: tea.Tick,
	}
	d.SetKey(key)
	d.SetDelay(delay)
	return d
}

func (d *Detector) Key() string             { return d.key }
func (d *Detector) Delay() time.Duration    { return d.delay }
func (d *Detector) Matches(key string) bool { return strings.EqualFold(key, d.key) }

func (d *Detector) SetKey(key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = DefaultKey
	}
	d.key = key
}

func (d *Detector) SetDelay(delay time.Duration) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d.delay = delay
}

// KeyDown records a press. Presses outside the editor, auto-repeat and other
// keys are ignored and leave no trace. consumed reports whether the press
// belongs to a gesture and must not reach the editor.
func (d *Detector) KeyDown(key string, inEditor bool) (consumed bool, cmd tea.Cmd) {
	if !d.Matches(key) || !inEditor {
		return false, nil
	}
	if d.pressed {
		return false, nil
	}
	d.pressed = true

	now := d.now()
	if !d.lastPress.IsZero() && now.Sub(d.lastPress) < d.delay {
		d.clicks++
		d.cancelTimer()
		if d.clicks >= 2 {
			d.clicks = 0
			d.lastPress = time.Time{}
			return true, emit(DoubleTap)
		}
	} else {
		d.clicks = 1
	}

	d.lastPress = now
	d.seq++
	d.timerPending = true
	seq := d.seq
	return true, d.tick(d.delay, func(time.Time) tea.Msg {
		return timeoutMsg{seq: seq}
	})
}

// KeyUp re-arms detection for the next physical press.
func (d *Detector) KeyUp(key string) {
	if d.Matches(key) {
		d.pressed = false
	}
}

// Update handles the detector's own timer messages.
func (d *Detector) Update(msg tea.Msg) tea.Cmd {
	timeout, ok := msg.(timeoutMsg)
	if !ok || !d.timerPending || timeout.seq != d.seq {
		return nil
	}

	d.timerPending = false
	fire := d.clicks == 1
	d.clicks = 0
	if fire {
		return emit(SingleTap)
	}
	return nil
}

func (d *Detector) cancelTimer() {
	if d.timerPending {
		d.seq++
		d.timerPending = false
	}
}

func emit(kind Kind) tea.Cmd {
	return func() tea.Msg {
		return TapMsg{Kind: kind}
	}
}
