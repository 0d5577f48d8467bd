package library

import (
	"fmt"

	"github.com/desertthunder/itx/internal/shared"
)

const dictTag = "dict"

// Tracks returns the track entries of a library document rooted at root.
func Tracks(root *Node) ([]*Node, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil document", shared.ErrStructure)
	}

	library := root.Child(dictTag)
	if library == nil {
		return nil, fmt.Errorf("%w: no <dict> under <%s>", shared.ErrStructure, root.Name)
	}

	collection := library.Child(dictTag)
	if collection == nil {
		return nil, fmt.Errorf("%w: no track collection <dict> in library", shared.ErrStructure)
	}

	return collection.All(dictTag), nil
}

// ParseRecord pairs the children of a track entry into a [Record].
//
// Children alternate key, value, key, value. Later duplicates replace earlier ones.
func ParseRecord(entry *Node) (Record, error) {
	if len(entry.Children)%2 != 0 {
		return Record{}, fmt.Errorf("%w: track entry has %d children", shared.ErrUnevenPairs, len(entry.Children))
	}

	fields := make(map[string]string, len(entry.Children)/2)
	for i := 0; i < len(entry.Children); i += 2 {
		fields[entry.Children[i].Value()] = entry.Children[i+1].Value()
	}
	return Record{fields: fields}, nil
}
