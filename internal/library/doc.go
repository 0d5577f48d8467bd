// Package library reads exported iTunes library files.
//
// # Tree
//
// [Decode] turns the property list XML into a [Node] tree. The track collection sits two
// levels below the document root: inside the first <dict> child of <plist>, inside that
// dict's first <dict> child. [Tracks] walks that path and returns the track entries.
//
// # Records
//
// Each track entry is a flat, alternating sequence of <key> and value nodes. [ParseRecord]
// pairs them into a [Record]. An odd child count is a structural error
// ([shared.ErrUnevenPairs]) and aborts the whole load rather than skipping the entry.
//
// # Validation
//
// [Validate] returns a tagged [Validation]: either valid, or invalid with the list of
// missing required keys (Name, Artist, Album). Invalid records are reported, never resolved.
//
// # Albums
//
// [UniqueAlbums] collapses records into distinct [AlbumKey] values using exact string
// equality, so album mode issues one catalog search per album instead of one per track.
package library
