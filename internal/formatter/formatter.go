// package formatter renders run reports in various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/itx/internal/shared"
	"github.com/desertthunder/itx/internal/tasks"
)

// Report row kinds
const (
	KindSkipped  = "skipped"   // dropped by validation
	KindNotFound = "not_found" // search returned nothing
)

// Row is one record that did not make it into the playlist.
type Row struct {
	Kind   string `json:"kind"`
	Mode   string `json:"mode,omitempty"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail"` // search query or validation reason
}

// Summary holds the counts of a run.
type Summary struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Mode        string `json:"mode"`
	Owner       string `json:"owner"`
	Playlist    string `json:"playlist"`
	PlaylistID  string `json:"playlist_id,omitempty"`
	PlaylistURL string `json:"playlist_url,omitempty"`
	Records     int    `json:"records"`
	Valid       int    `json:"valid"`
	Skipped     int    `json:"skipped"`
	Searches    int    `json:"searches"`
	Matched     int    `json:"matched"`
	NotFound    int    `json:"not_found"`
	AppendCalls int    `json:"append_calls"`
	Duration    string `json:"duration"`
	Rows        []Row  `json:"rows,omitempty"`
}

// Summarize collects the counts and the skipped or unmatched rows of result.
func Summarize(result *tasks.RunResult) Summary {
	s := Summary{
		ID:          result.ID,
		Source:      result.Options.Path,
		Mode:        string(result.Options.Mode),
		Owner:       result.Options.Owner,
		Playlist:    result.Options.Playlist,
		Records:     result.Total,
		Valid:       result.Valid,
		Skipped:     len(result.Invalid),
		Searches:    result.Searches,
		Matched:     len(result.IDs),
		NotFound:    len(result.Unmatched),
		AppendCalls: result.AppendCalls,
		Duration:    result.Duration().Round(time.Millisecond).String(),
	}
	if result.Playlist != nil {
		s.PlaylistID = result.Playlist.ID
		s.PlaylistURL = result.Playlist.URL
	}

	for _, v := range result.Invalid {
		r := v.Record()
		s.Rows = append(s.Rows, Row{
			Kind:   KindSkipped,
			Artist: r.Artist(),
			Album:  r.Album(),
			Name:   r.Name(),
			Detail: v.Reason(),
		})
	}
	for _, u := range result.Unmatched {
		s.Rows = append(s.Rows, Row{
			Kind:   KindNotFound,
			Mode:   string(u.Mode),
			Artist: u.Artist,
			Album:  u.Album,
			Name:   u.Name,
			Detail: u.Query,
		})
	}
	return s
}

// ReportToCSV writes one row per skipped or unmatched record with columns: Kind, Mode, Artist, Album, Name, Detail
func ReportToCSV(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "Mode", "Artist", "Album", "Name", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range s.Rows {
		if err := writer.Write([]string{row.Kind, row.Mode, row.Artist, row.Album, row.Name, row.Detail}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders the summary as a Markdown document.
func ReportToMarkdown(s Summary) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", s.Playlist)
	fmt.Fprintf(&buf, "**Source**: %s\n", s.Source)
	fmt.Fprintf(&buf, "**Mode**: %s\n", s.Mode)
	if s.PlaylistURL != "" {
		fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", s.PlaylistID, s.PlaylistURL)
	}
	buf.WriteString("\n")

	buf.WriteString("| Records | Valid | Skipped | Searches | Matched | Not found | Append calls |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&buf, "| %d | %d | %d | %d | %d | %d | %d |\n\n",
		s.Records, s.Valid, s.Skipped, s.Searches, s.Matched, s.NotFound, s.AppendCalls)

	writeSection := func(title, kind string) {
		var rows []Row
		for _, row := range s.Rows {
			if row.Kind == kind {
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 {
			return
		}

		fmt.Fprintf(&buf, "## %s\n\n", title)
		for i, row := range rows {
			fmt.Fprintf(&buf, "%d. %s - %s", i+1, orDash(row.Artist), orDash(row.Album))
			if row.Name != "" {
				fmt.Fprintf(&buf, " - %s", row.Name)
			}
			fmt.Fprintf(&buf, " (`%s`)\n", row.Detail)
		}
		buf.WriteString("\n")
	}
	writeSection("Not found", KindNotFound)
	writeSection("Skipped", KindSkipped)

	return buf.Bytes(), nil
}

// ReportToText renders the summary as plain text.
func ReportToText(s Summary) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", s.Playlist)
	fmt.Fprintf(&buf, "Source: %s\n", s.Source)
	fmt.Fprintf(&buf, "Mode: %s\n", s.Mode)
	fmt.Fprintf(&buf, "Records: %d (%d valid, %d skipped)\n", s.Records, s.Valid, s.Skipped)
	fmt.Fprintf(&buf, "Matched: %d of %d searches, %d not found\n\n", s.Matched, s.Searches, s.NotFound)

	for i, row := range s.Rows {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s", i+1, row.Kind, orDash(row.Artist), orDash(row.Album))
		if row.Name != "" {
			fmt.Fprintf(&buf, " - %s", row.Name)
		}
		fmt.Fprintf(&buf, ": %s\n", row.Detail)
	}

	return buf.Bytes(), nil
}

// ReportToJSON renders the summary as indented JSON.
func ReportToJSON(s Summary) ([]byte, error) {
	return shared.MarshalJSON(s, true)
}

// WriteReport writes s to path, choosing the format from the extension: .csv, .md, .json, anything else is plain text.
func WriteReport(s Summary, path string) error {
	if path == "" {
		return fmt.Errorf("%w: report path", shared.ErrMissingArgument)
	}

	var render func(Summary) ([]byte, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		render = ReportToCSV
	case ".md", ".markdown":
		render = ReportToMarkdown
	case ".json":
		render = ReportToJSON
	default:
		render = ReportToText
	}

	data, err := render(s)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
