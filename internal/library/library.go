package library

import (
	"fmt"
	"io"
	"os"
)

// Library is the validated content of a library file.
type Library struct {
	Total   int          // track entries found
	Valid   []Record     // records with all required keys, in document order
	Invalid []Validation // rejected records, in document order
}

// Read decodes a library document and validates every track entry.
//
// Structural problems abort with an error; incomplete records are collected in [Library.Invalid].
func Read(r io.Reader) (*Library, error) {
	root, err := Decode(r)
	if err != nil {
		return nil, err
	}

	entries, err := Tracks(root)
	if err != nil {
		return nil, err
	}

	lib := &Library{Total: len(entries)}
	for i, entry := range entries {
		record, err := ParseRecord(entry)
		if err != nil {
			return nil, fmt.Errorf("track entry %d: %w", i+1, err)
		}

		if v := Validate(record); v.Valid() {
			lib.Valid = append(lib.Valid, record)
		} else {
			lib.Invalid = append(lib.Invalid, v)
		}
	}

	return lib, nil
}

// Load opens the library file at path and reads it with [Read].
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	defer f.Close()

	return Read(f)
}
