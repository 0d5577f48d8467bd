// Package ui renders ingest progress in the terminal.
//
// Two front ends consume the engine's [tasks.ProgressUpdate] channel:
//   - [PrintProgress] : plain styled lines, one per update, used by default
//   - [Model] : a bubbletea view with a spinner, a progress bar and the latest misses, used with --interactive
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern. It starts the run in a goroutine,
// pulls updates off the channel one message at a time and quits when the run returns. Pressing esc or q cancels
// the run's context.
//
// Colors come from a small lipgloss [Palette] shared with the CLI output.
package ui
