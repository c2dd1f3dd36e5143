package notepad

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LLMStatus is the state of the most recent generation request.
type LLMStatus int

const (
	LLMStatusIdle LLMStatus = iota
	LLMStatusInFlight
	LLMStatusSuccess
	LLMStatusError
)

const lightning = "⚡"

// Color cycle for the in-flight animation: blue → purple → orange → yellow → back
var inFlightColors = []lipgloss.Color{
	"12", "33", "57", "93", "129", "208", "214", "220",
	"214", "208", "129", "93", "57", "33",
}

// LLMTickMsg advances the color animation.
type LLMTickMsg struct{}

type LLMIndicator struct {
	status     LLMStatus
	frameIndex int
}

func NewLLMIndicator() LLMIndicator {
	return LLMIndicator{status: LLMStatusIdle}
}

func (i LLMIndicator) Tick() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg {
		return LLMTickMsg{}
	})
}

// SetStatus returns a tick command when the indicator starts animating.
func (i *LLMIndicator) SetStatus(status LLMStatus) tea.Cmd {
	previous := i.status
	i.status = status
	if status == LLMStatusInFlight && previous != LLMStatusInFlight {
		i.frameIndex = 0
		return i.Tick()
	}
	return nil
}

func (i LLMIndicator) Status() LLMStatus {
	return i.status
}

// Update advances the animation and keeps ticking while a request runs.
func (i *LLMIndicator) Update(LLMTickMsg) tea.Cmd {
	if i.status != LLMStatusInFlight {
		return nil
	}
	i.frameIndex = (i.frameIndex + 1) % len(inFlightColors)
	return i.Tick()
}

func (i LLMIndicator) View() string {
	switch i.status {
	case LLMStatusInFlight:
		return lipgloss.NewStyle().Foreground(inFlightColors[i.frameIndex]).Render(lightning)
	case LLMStatusSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(lightning)
	case LLMStatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(lightning)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(lightning)
	}
}
