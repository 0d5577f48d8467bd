package library

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/desertthunder/itx/internal/shared"
)

// Required record keys.
const (
	KeyName   = "Name"
	KeyArtist = "Artist"
	KeyAlbum  = "Album"
)

var requiredKeys = []string{KeyName, KeyArtist, KeyAlbum}

// Record is the flat metadata of one library track. It is read-only once built.
type Record struct {
	fields map[string]string
}

// NewRecord copies fields into a new [Record].
func NewRecord(fields map[string]string) Record {
	return Record{fields: maps.Clone(fields)}
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.fields[key]
	return v, ok
}

func (r Record) Name() string   { return r.fields[KeyName] }
func (r Record) Artist() string { return r.fields[KeyArtist] }
func (r Record) Album() string  { return r.fields[KeyAlbum] }

// Len returns the number of keys.
func (r Record) Len() int { return len(r.fields) }

func (r Record) String() string {
	return fmt.Sprintf("%s - %s (%s)", r.Artist(), r.Name(), r.Album())
}

// Validation is the outcome of checking a [Record] for required metadata.
type Validation struct {
	record  Record
	missing []string
}

// Validate checks that r carries a non-empty Name, Artist and Album.
func Validate(r Record) Validation {
	v := Validation{record: r}
	for _, key := range requiredKeys {
		if value, ok := r.fields[key]; !ok || value == "" {
			v.missing = append(v.missing, key)
		}
	}
	return v
}

func (v Validation) Valid() bool       { return len(v.missing) == 0 }
func (v Validation) Record() Record    { return v.record }
func (v Validation) Missing() []string { return slices.Clone(v.missing) }

// Reason describes why the record is invalid; empty when valid.
func (v Validation) Reason() string {
	if v.Valid() {
		return ""
	}
	return "missing " + strings.Join(v.missing, ", ")
}

// Err wraps [shared.ErrMissingMetadata] for invalid records and is nil otherwise.
func (v Validation) Err() error {
	if v.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrMissingMetadata, v.Reason())
}
