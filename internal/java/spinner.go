package java

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

type scanFinishedMsg struct{}

type scannerModel struct {
	spinner   spinner.Model
	cancel    context.CancelFunc
	quitting  bool
	cancelled bool
}

func newScannerModel(cancel context.CancelFunc) scannerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return scannerModel{
		spinner: s,
		cancel:  cancel,
	}
}

func (m scannerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m scannerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case scanFinishedMsg:
		m.quitting = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m scannerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf(" %s Scanning for Java installations...\n", m.spinner.View())
}

// DiscoverWithSpinner runs Discover behind a terminal spinner. Pressing
// ctrl+c cancels the scan and returns the context error.
func DiscoverWithSpinner(ctx context.Context, d *Detector) ([]Installation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newScannerModel(cancel))
	done := make(chan []Installation, 1)

	go func() {
		done <- d.Discover(ctx)
		p.Send(scanFinishedMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, err
	}

	found := <-done
	if m, ok := final.(scannerModel); ok && m.cancelled {
		return nil, context.Canceled
	}
	return found, nil
}

// SpinnerDiscoverer shows a spinner while the detector runs. Pressing
// ctrl+c calls Cancel, since the terminal no longer delivers SIGINT.
type SpinnerDiscoverer struct {
	Detector *Detector
	Cancel   context.CancelFunc
}

func (s SpinnerDiscoverer) Discover(ctx context.Context) []Installation {
	found, err := DiscoverWithSpinner(ctx, s.Detector)
	switch {
	case err == nil:
		return found
	case errors.Is(err, context.Canceled):
		if s.Cancel != nil {
			s.Cancel()
		}
		return nil
	}

	log.Debug().Err(err).Msg("spinner unavailable, scanning without it")
	return s.Detector.Discover(ctx)
}
