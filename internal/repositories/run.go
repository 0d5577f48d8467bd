package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/itx/internal/models"
	"github.com/desertthunder/itx/internal/shared"
)

// ErrRunNotFound is returned when no live run has the requested id.
var ErrRunNotFound = errors.New("run not found")

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

const runColumns = `
	id, sequence, source_path, owner, playlist_name, playlist_id, mode, status,
	records_total, records_invalid, searches, tracks_matched, tracks_unmatched,
	append_calls, error_message, started_at, completed_at, created_at, updated_at, deleted_at
`

// RunRepository implements models.Repository[*models.Run] for run history.
//
// Handles run CRUD operations with soft delete support and mode/status queries.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with the next sequence number. An id is generated when the run has none.
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	run.SetSequence(sequence)

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.SourcePath(),
		run.Owner(),
		run.PlaylistName(),
		nullString(run.PlaylistID()),
		run.Mode(),
		run.Status(),
		run.RecordsTotal(),
		run.RecordsInvalid(),
		run.Searches(),
		run.TracksMatched(),
		run.TracksUnmatched(),
		run.AppendCalls(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
		run.DeletedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the mutable fields of a run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET playlist_id = ?, status = ?, records_total = ?, records_invalid = ?,
			searches = ?, tracks_matched = ?, tracks_unmatched = ?, append_calls = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullString(run.PlaylistID()),
		run.Status(),
		run.RecordsTotal(),
		run.RecordsInvalid(),
		run.Searches(),
		run.TracksMatched(),
		run.TracksUnmatched(),
		run.AppendCalls(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return expectOne(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return expectOne(result, id)
}

// List retrieves runs matching criteria, newest first, excluding soft-deleted runs.
//
// Recognized criteria: "mode", "status" and "owner" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	for _, column := range []string{"mode", "status", "owner"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.Run]
func scanRun(row scanner) (*models.Run, error) {
	var (
		id              string
		sequence        int
		sourcePath      string
		owner           string
		playlistName    string
		playlistID      sql.NullString
		mode            string
		status          string
		recordsTotal    int
		recordsInvalid  int
		searches        int
		tracksMatched   int
		tracksUnmatched int
		appendCalls     int
		errorMessage    sql.NullString
		startedAt       sql.NullTime
		completedAt     sql.NullTime
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &sourcePath, &owner, &playlistName, &playlistID, &mode, &status,
		&recordsTotal, &recordsInvalid, &searches, &tracksMatched, &tracksUnmatched,
		&appendCalls, &errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(sequence, sourcePath, owner, playlistName, mode)
	run.SetID(id)
	run.SetStatus(status)
	run.SetRecords(recordsTotal, recordsInvalid)
	run.SetSearches(searches)
	run.SetTracks(tracksMatched, tracksUnmatched)
	run.SetAppendCalls(appendCalls)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	if playlistID.Valid {
		run.SetPlaylistID(playlistID.String)
	}
	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	if startedAt.Valid {
		run.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", ErrRunNotFound, id)
	}
	return nil
}
