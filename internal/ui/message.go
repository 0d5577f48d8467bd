package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/itx/internal/tasks"
)

var (
	_ tea.Msg = progressMsg{}
	_ tea.Msg = doneMsg{}
)

// progressMsg carries one engine update into the view.
type progressMsg tasks.ProgressUpdate

// doneMsg is sent once the run returns.
type doneMsg struct {
	result *tasks.RunResult
	err    error
}
