package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/itx/internal/library"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
)

// Mode selects the resolution strategy.
type Mode string

const (
	TrackMode Mode = "track"
	AlbumMode Mode = "album"
)

// Modes lists the accepted values of --mode.
var Modes = []Mode{TrackMode, AlbumMode}

// ParseMode parses a --mode value. Empty means [TrackMode].
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case m == "":
		return TrackMode, nil
	case slices.Contains(Modes, m):
		return m, nil
	default:
		return "", fmt.Errorf("%w: mode must be one of %v (got %q)", shared.ErrInvalidFlag, Modes, s)
	}
}

// Unmatched is a search that returned no results.
type Unmatched struct {
	Mode   Mode
	Artist string
	Album  string
	Name   string // empty for album searches
	Query  string
	Err    error // [shared.ErrTrackNotFound] or [shared.ErrAlbumNotFound]
}

// Resolution is the outcome of resolving a set of records.
type Resolution struct {
	IDs       []string // catalog track ids in submission order
	Unmatched []Unmatched
	Searches  int
}

// Resolver turns validated records into catalog track ids.
//
// Search and transport errors abort resolution. A search with no results is recorded in
// [Resolution.Unmatched] and skipped.
type Resolver interface {
	Resolve(ctx context.Context, svc services.Service, records []library.Record, progress chan<- ProgressUpdate) (*Resolution, error)
	Mode() Mode
}

// NewResolver returns the strategy for mode. A nil logger discards diagnostics.
func NewResolver(mode Mode, logger *log.Logger) (Resolver, error) {
	switch mode {
	case TrackMode:
		return &TrackStrategy{logger: logger}, nil
	case AlbumMode:
		return &AlbumStrategy{logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidArgument, mode)
	}
}

// TrackQuery builds the per-track search query.
func TrackQuery(r library.Record) string {
	return fmt.Sprintf("artist:%s track:%s album:%s", r.Artist(), r.Name(), r.Album())
}

// AlbumQuery builds the per-album search query.
func AlbumQuery(key library.AlbumKey) string {
	return fmt.Sprintf("artist:%s album:%s", key.Artist, key.Album)
}

// TrackStrategy searches once per record and keeps the first result.
type TrackStrategy struct {
	logger *log.Logger
}

func (s *TrackStrategy) Mode() Mode { return TrackMode }

func (s *TrackStrategy) Resolve(ctx context.Context, svc services.Service, records []library.Record, progress chan<- ProgressUpdate) (*Resolution, error) {
	res := &Resolution{IDs: make([]string, 0, len(records))}
	total := len(records)

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sendProgress(progress, searchTrackUpdate(i+1, total, record))

		query := TrackQuery(record)
		tracks, err := svc.SearchTracks(ctx, query)
		res.Searches++
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}

		if len(tracks) == 0 {
			u := Unmatched{
				Mode:   TrackMode,
				Artist: record.Artist(),
				Album:  record.Album(),
				Name:   record.Name(),
				Query:  query,
				Err:    shared.ErrTrackNotFound,
			}
			res.Unmatched = append(res.Unmatched, u)
			if s.logger != nil {
				s.logger.Warn("track not found", "query", query)
			}
			sendProgress(progress, notFoundUpdate(SearchTracks, i+1, total, u))
			continue
		}

		res.IDs = append(res.IDs, tracks[0].ID)
	}

	return res, nil
}

// AlbumStrategy searches once per unique (Artist, Album) pair and expands each match to its full track list.
type AlbumStrategy struct {
	logger *log.Logger
}

func (s *AlbumStrategy) Mode() Mode { return AlbumMode }

func (s *AlbumStrategy) Resolve(ctx context.Context, svc services.Service, records []library.Record, progress chan<- ProgressUpdate) (*Resolution, error) {
	keys := library.UniqueAlbums(records)
	res := &Resolution{}
	total := len(keys)

	type match struct {
		key library.AlbumKey
		id  string
	}
	matches := make([]match, 0, total)

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sendProgress(progress, searchAlbumUpdate(i+1, total, key))

		query := AlbumQuery(key)
		albums, err := svc.SearchAlbums(ctx, query)
		res.Searches++
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}

		if len(albums) == 0 {
			u := Unmatched{
				Mode:   AlbumMode,
				Artist: key.Artist,
				Album:  key.Album,
				Query:  query,
				Err:    shared.ErrAlbumNotFound,
			}
			res.Unmatched = append(res.Unmatched, u)
			if s.logger != nil {
				s.logger.Warn("album not found", "query", query)
			}
			sendProgress(progress, notFoundUpdate(SearchAlbums, i+1, total, u))
			continue
		}

		matches = append(matches, match{key: key, id: albums[0].ID})
	}

	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tracks, err := svc.AlbumTracks(ctx, m.id)
		if err != nil {
			return nil, fmt.Errorf("album %s: %w", m.key, err)
		}

		for _, track := range tracks {
			res.IDs = append(res.IDs, track.ID)
		}
		sendProgress(progress, expandAlbumUpdate(i+1, len(matches), m.key, len(tracks)))
	}

	return res, nil
}
