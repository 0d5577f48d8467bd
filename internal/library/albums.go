package library

import "fmt"

// AlbumKey identifies an album by exact artist and album strings.
type AlbumKey struct {
	Artist string
	Album  string
}

func (k AlbumKey) String() string {
	return fmt.Sprintf("%s - %s", k.Artist, k.Album)
}

// KeyOf projects a record onto its album.
func KeyOf(r Record) AlbumKey {
	return AlbumKey{Artist: r.Artist(), Album: r.Album()}
}

// UniqueAlbums returns the distinct albums of records in first-seen order.
func UniqueAlbums(records []Record) []AlbumKey {
	seen := make(map[AlbumKey]struct{}, len(records))
	var keys []AlbumKey
	for _, r := range records {
		k := KeyOf(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
