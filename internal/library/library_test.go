package library

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/itx/internal/shared"
)

// plist wraps track entries in the library document layout.
func plist(entries ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><plist version="1.0"><dict><key>Tracks</key><dict>`)
	for i, e := range entries {
		fmt.Fprintf(&b, "<key>%d</key>%s", i+1, e)
	}
	b.WriteString(`</dict></dict></plist>`)
	return b.String()
}

func track(name, artist, album string) string {
	return fmt.Sprintf(`<dict><key>Name</key><string>%s</string><key>Artist</key><string>%s</string><key>Album</key><string>%s</string></dict>`,
		name, artist, album)
}

func TestLoad(t *testing.T) {
	t.Run("fixture with one incomplete record", func(t *testing.T) {
		lib, err := Load(filepath.Join("testdata", "library.xml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if lib.Total != 3 {
			t.Errorf("expected 3 track entries, got %d", lib.Total)
		}
		if len(lib.Valid) != 2 {
			t.Fatalf("expected 2 valid records, got %d", len(lib.Valid))
		}
		if len(lib.Invalid) != 1 {
			t.Fatalf("expected 1 invalid record, got %d", len(lib.Invalid))
		}

		if lib.Valid[0].Name() != "Paranoid Android" || lib.Valid[1].Name() != "Karma Police" {
			t.Errorf("expected document order, got %v", lib.Valid)
		}

		invalid := lib.Invalid[0]
		if invalid.Reason() != "missing Album" {
			t.Errorf("expected reason 'missing Album', got %q", invalid.Reason())
		}
		if !errors.Is(invalid.Err(), shared.ErrMissingMetadata) {
			t.Errorf("expected ErrMissingMetadata, got %v", invalid.Err())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("every valid record has the required keys", func(t *testing.T) {
		doc := plist(
			track("a", "b", "c"),
			`<dict><key>Name</key><string>x</string></dict>`,
			track("", "b", "c"),
			`<dict><key>Artist</key><string>y</string><key>Album</key><string>z</string></dict>`,
		)

		lib, err := Read(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, r := range lib.Valid {
			for _, key := range []string{KeyName, KeyArtist, KeyAlbum} {
				if v, ok := r.Get(key); !ok || v == "" {
					t.Errorf("valid record %v lacks %s", r, key)
				}
			}
		}
		if len(lib.Valid) != 1 || len(lib.Invalid) != 3 {
			t.Errorf("expected 1 valid and 3 invalid, got %d and %d", len(lib.Valid), len(lib.Invalid))
		}
	})
}

func TestStructuralErrors(t *testing.T) {
	tc := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "uneven pairs abort",
			doc:     plist(track("a", "b", "c"), `<dict><key>Name</key><string>x</string><key>Artist</key></dict>`),
			wantErr: shared.ErrUnevenPairs,
		},
		{
			name:    "no library dict",
			doc:     `<plist version="1.0"><array/></plist>`,
			wantErr: shared.ErrStructure,
		},
		{
			name:    "no track collection",
			doc:     `<plist version="1.0"><dict><key>Major Version</key><integer>1</integer></dict></plist>`,
			wantErr: shared.ErrStructure,
		},
		{
			name:    "malformed xml",
			doc:     `<plist><dict>`,
			wantErr: shared.ErrStructure,
		},
		{
			name:    "empty document",
			doc:     ``,
			wantErr: shared.ErrStructure,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Read(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if lib != nil {
				t.Error("expected no library on structural error")
			}
		})
	}
}

func TestParseRecord(t *testing.T) {
	t.Run("entities and empty values", func(t *testing.T) {
		root, err := Decode(strings.NewReader(plist(
			`<dict><key>Name</key><string>Rock &amp; Roll</string><key>Artist</key><string>Led Zeppelin</string><key>Album</key><string>IV</string><key>Compilation</key><true/></dict>`,
		)))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := Tracks(root)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		record, err := ParseRecord(entries[0])
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if record.Name() != "Rock & Roll" {
			t.Errorf("expected decoded entity, got %q", record.Name())
		}
		if v, ok := record.Get("Compilation"); !ok || v != "" {
			t.Errorf("expected empty value for <true/>, got %q (present=%v)", v, ok)
		}
		if record.Len() != 4 {
			t.Errorf("expected 4 keys, got %d", record.Len())
		}
	})

	t.Run("values are kept verbatim", func(t *testing.T) {
		lib, err := Read(strings.NewReader(plist(
			track(" Intro ", "Radiohead ", "OK Computer"),
			track("Airbag", "Radiohead", "OK Computer"),
			track("   ", "Radiohead", "OK Computer"),
		)))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.Valid) != 3 {
			t.Fatalf("expected whitespace-only name to stay valid, got %d valid", len(lib.Valid))
		}
		if got := lib.Valid[0].Name(); got != " Intro " {
			t.Errorf("expected untrimmed name, got %q", got)
		}
		if got := lib.Valid[0].Artist(); got != "Radiohead " {
			t.Errorf("expected untrimmed artist, got %q", got)
		}
		if albums := UniqueAlbums(lib.Valid); len(albums) != 2 {
			t.Errorf("expected padded artist to be a distinct album key, got %v", albums)
		}
	})

	t.Run("later duplicate key wins", func(t *testing.T) {
		entry := &Node{Name: "dict", Children: []*Node{
			{Name: "key", Text: "Name"}, {Name: "string", Text: "first"},
			{Name: "key", Text: "Name"}, {Name: "string", Text: "second"},
		}}

		record, err := ParseRecord(entry)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.Name() != "second" {
			t.Errorf("expected second, got %q", record.Name())
		}
	})

	t.Run("empty entry", func(t *testing.T) {
		record, err := ParseRecord(&Node{Name: "dict"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if Validate(record).Valid() {
			t.Error("expected empty record to be invalid")
		}
		if got := Validate(record).Missing(); len(got) != 3 {
			t.Errorf("expected 3 missing keys, got %v", got)
		}
	})

	t.Run("NewRecord copies its input", func(t *testing.T) {
		fields := map[string]string{KeyName: "a"}
		record := NewRecord(fields)
		fields[KeyName] = "changed"

		if record.Name() != "a" {
			t.Errorf("expected record to be unaffected, got %q", record.Name())
		}
	})
}

func TestUniqueAlbums(t *testing.T) {
	records := []Record{
		NewRecord(map[string]string{KeyName: "1", KeyArtist: "Radiohead", KeyAlbum: "OK Computer"}),
		NewRecord(map[string]string{KeyName: "2", KeyArtist: "Radiohead", KeyAlbum: "Kid A"}),
		NewRecord(map[string]string{KeyName: "3", KeyArtist: "Radiohead", KeyAlbum: "OK Computer"}),
		NewRecord(map[string]string{KeyName: "4", KeyArtist: "radiohead", KeyAlbum: "OK Computer"}),
		NewRecord(map[string]string{KeyName: "5", KeyArtist: "Radiohead", KeyAlbum: "Kid A"}),
		NewRecord(map[string]string{KeyName: "6", KeyArtist: "Portishead", KeyAlbum: "Dummy"}),
	}

	t.Run("collapses exact duplicates only", func(t *testing.T) {
		got := UniqueAlbums(records)
		if len(got) != 4 {
			t.Fatalf("expected 4 unique albums, got %d: %v", len(got), got)
		}
		if got[0] != (AlbumKey{Artist: "Radiohead", Album: "OK Computer"}) {
			t.Errorf("expected first-seen order, got %v", got[0])
		}
	})

	t.Run("independent of record order", func(t *testing.T) {
		want := make(map[AlbumKey]bool)
		for _, k := range UniqueAlbums(records) {
			want[k] = true
		}

		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 20; i++ {
			shuffled := append([]Record(nil), records...)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			got := UniqueAlbums(shuffled)
			if len(got) != len(want) {
				t.Fatalf("expected %d albums, got %d", len(want), len(got))
			}
			for _, k := range got {
				if !want[k] {
					t.Errorf("unexpected album %v", k)
				}
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := UniqueAlbums(nil); len(got) != 0 {
			t.Errorf("expected no albums, got %v", got)
		}
	})
}
