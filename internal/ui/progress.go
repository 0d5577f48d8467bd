package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/itx/internal/tasks"
)

const maxMisses = 5

// RunFunc starts an ingest that reports on progress and returns its result.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

// Model is the bubbletea view of a running ingest.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	run          RunFunc
	title        string
	progressChan chan tasks.ProgressUpdate
	results      chan doneMsg
	spinner      spinner.Model
	bar          progress.Model
	help         help.Model
	keys         keyMap
	update       tasks.ProgressUpdate
	misses       []string
	canceled     bool
	done         bool
	result       *tasks.RunResult
	err          error
}

// NewModel creates a view that executes run when started.
func NewModel(ctx context.Context, title string, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		title:   title,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the run and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.spinner.Tick)
}

// Result returns the outcome once the program has exited.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.quit):
			if m.done {
				return m, tea.Quit
			}
			m.canceled = true
			m.cancel()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case progressMsg:
		m.update = tasks.ProgressUpdate(msg)
		if u, ok := m.update.Data.(tasks.Unmatched); ok {
			m.misses = append(m.misses, u.Query)
			if len(m.misses) > maxMisses {
				m.misses = m.misses[len(m.misses)-maxMisses:]
			}
		}
		return m, tea.Batch(m.bar.SetPercent(percent(m.update)), m.waitForProgress())

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current phase, a progress bar and the most recent misses.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n\n")

	if m.done {
		if m.err != nil {
			b.WriteString(styles.err.Render(fmt.Sprintf("✗ %v", m.err)))
		} else {
			b.WriteString(styles.ok.Render("✓ Done"))
		}
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s", m.spinner.View(), PhaseLabel(m.update.Phase))
	if m.update.Total > 0 {
		fmt.Fprintf(&b, " (%d/%d)", m.update.Step, m.update.Total)
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")
	b.WriteString(m.update.Message)
	b.WriteString("\n")

	if len(m.misses) > 0 {
		b.WriteString("\n")
		for _, q := range m.misses {
			b.WriteString(styles.warn.Render("  not found: " + q))
			b.WriteString("\n")
		}
	}

	if m.canceled {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Canceling..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) start() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.results = make(chan doneMsg, 1)

	go func() {
		result, err := m.run(m.ctx, m.progressChan)
		close(m.progressChan)
		m.results <- doneMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, results := m.progressChan, m.results
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			return <-results
		}
		return progressMsg(update)
	}
}

func percent(u tasks.ProgressUpdate) float64 {
	if u.Total <= 0 {
		return 0
	}
	return min(float64(u.Step)/float64(u.Total), 1)
}

// PhaseLabel returns a display name for p.
func PhaseLabel(p tasks.Phase) string {
	switch p {
	case tasks.LoadLibrary:
		return "Reading library"
	case tasks.CreatePlaylist:
		return "Creating playlist"
	case tasks.SearchTracks:
		return "Searching tracks"
	case tasks.SearchAlbums:
		return "Searching albums"
	case tasks.ExpandAlbums:
		return "Expanding albums"
	case tasks.SubmitTracks:
		return "Adding tracks"
	default:
		return "Processing"
	}
}

// RunInteractive runs the ingest inside a bubbletea program and returns its outcome.
func RunInteractive(ctx context.Context, title string, run RunFunc, opts ...tea.ProgramOption) (*tasks.RunResult, error) {
	model := NewModel(ctx, title, run)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}
	return model.Result()
}
