package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/itx/internal/tasks"
)

// PrintProgress writes updates from progress to w as styled lines until the channel is closed.
func PrintProgress(w io.Writer, progress <-chan tasks.ProgressUpdate) {
	last := tasks.Phase(-1)
	for update := range progress {
		if update.Phase != last {
			last = update.Phase
			fmt.Fprintf(w, "\n%s\n", styles.title.Render(PhaseLabel(update.Phase)))
		}

		if _, ok := update.Data.(tasks.Unmatched); ok {
			fmt.Fprintf(w, "   %s\n", styles.warn.Render(update.Message))
			continue
		}
		fmt.Fprintf(w, "   %s\n", update.Message)
	}
}
