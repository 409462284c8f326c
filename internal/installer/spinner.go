package installer

import (
	"context"
	"fmt"

	"fxlaunch/internal/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerFinishedMsg struct {
	err error
}

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	cancel   context.CancelFunc
	quitting bool
	err      error
}

func newSpinnerModel(message string, cancel context.CancelFunc) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.InfoStyle

	return spinnerModel{
		spinner: s,
		message: message,
		cancel:  cancel,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinnerFinishedMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), m.message)
}

// WithSpinner runs fn behind a spinner and returns its error. Pressing
// ctrl+c cancels the context passed to fn.
func WithSpinner(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(message, cancel))
	result := make(chan error, 1)

	go func() {
		err := fn(ctx)
		result <- err
		p.Send(spinnerFinishedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return err
	}

	return <-result
}
