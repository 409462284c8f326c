package installer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fxlaunch/internal/theme"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

const (
	padding        = 2
	reportInterval = 100 * time.Millisecond
)

type progressMsg struct {
	percent    float64
	downloaded int64
	total      int64
	speed      string
}

type downloadCompleteMsg struct{ err error }

// ProgressModel is the Bubble Tea model for a bundle download
type ProgressModel struct {
	progress   progress.Model
	title      string
	cancel     context.CancelFunc
	totalBytes int64
	downloaded int64
	speed      string
	err        error
	done       bool
}

func newProgressModel(title string, cancel context.CancelFunc) ProgressModel {
	prog := progress.New(
		progress.WithGradient(string(theme.Secondary), string(theme.Primary)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		progress: prog,
		title:    title,
		cancel:   cancel,
		speed:    "0 B/s",
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		m.downloaded = msg.downloaded
		m.totalBytes = msg.total
		m.speed = msg.speed
		return m, m.progress.SetPercent(msg.percent)

	case downloadCompleteMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m ProgressModel) View() string {
	if m.err != nil {
		return theme.ErrorMessage("Download failed: "+m.err.Error()) + "\n"
	}

	if m.done {
		return ""
	}

	pad := strings.Repeat(" ", padding)

	total := "?"
	if m.totalBytes > 0 {
		total = humanize.Bytes(uint64(m.totalBytes))
	}
	info := fmt.Sprintf("%s / %s (%.0f%%) - %s",
		humanize.Bytes(uint64(m.downloaded)), total, m.progress.Percent()*100, m.speed)

	return "\n" +
		pad + theme.Subtitle.Render(m.title) + "\n" +
		pad + m.progress.View() + "\n" +
		pad + theme.Faint.Render(info) + "\n"
}

// ProgressBar drives a ProgressModel from download callbacks
type ProgressBar struct {
	program *tea.Program
	start   time.Time
	exited  chan struct{}

	mu       sync.Mutex
	lastSend time.Time
}

// StartProgress shows a progress bar until Finish is called. Pressing
// ctrl+c calls cancel.
func StartProgress(title string, cancel context.CancelFunc) *ProgressBar {
	b := &ProgressBar{
		program: tea.NewProgram(newProgressModel(title, cancel)),
		start:   time.Now(),
		exited:  make(chan struct{}),
	}

	go func() {
		defer close(b.exited)
		_, _ = b.program.Run()
	}()

	return b
}

// Report is a ProgressFunc
func (b *ProgressBar) Report(done, total int64) {
	b.mu.Lock()
	now := time.Now()
	if now.Sub(b.lastSend) < reportInterval && (total <= 0 || done < total) {
		b.mu.Unlock()
		return
	}
	b.lastSend = now
	b.mu.Unlock()

	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	speed := "0 B/s"
	if elapsed := now.Sub(b.start).Seconds(); elapsed > 0 {
		speed = humanize.Bytes(uint64(float64(done)/elapsed)) + "/s"
	}

	b.program.Send(progressMsg{percent: percent, downloaded: done, total: total, speed: speed})
}

// Finish stops the bar and waits for the terminal to be restored
func (b *ProgressBar) Finish(err error) {
	b.program.Send(downloadCompleteMsg{err: err})
	<-b.exited
}
