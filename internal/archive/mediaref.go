package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RefDelimiter joins several media ids in a single string field.
const RefDelimiter = " | "

type refKind uint8

const (
	refNone refKind = iota
	refList
	refJoined
)

// MediaRef is a message's media id field, which exports store either as a
// list of ids or as one delimiter-joined string.
type MediaRef struct {
	kind   refKind
	list   []string
	joined string
}

// List builds a reference from individual ids.
func List(ids ...string) MediaRef {
	return MediaRef{kind: refList, list: ids}
}

// Joined builds a reference from a " | " joined string.
func Joined(s string) MediaRef {
	return MediaRef{kind: refJoined, joined: s}
}

// IDs returns the referenced ids, trimmed and without empty tokens, in
// their original order.
func (r MediaRef) IDs() []string {
	var raw []string
	switch r.kind {
	case refList:
		raw = r.list
	case refJoined:
		raw = strings.Split(r.joined, "|")
	default:
		return nil
	}

	ids := make([]string, 0, len(raw))
	for _, token := range raw {
		if token = strings.TrimSpace(token); token != "" {
			ids = append(ids, token)
		}
	}
	return ids
}

// IsEmpty reports whether the reference carries no ids.
func (r MediaRef) IsEmpty() bool {
	return len(r.IDs()) == 0
}

func (r MediaRef) String() string {
	return strings.Join(r.IDs(), RefDelimiter)
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (r *MediaRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = MediaRef{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("media ids: %w", err)
		}
		*r = List(ids...)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("media ids: %w", err)
		}
		*r = Joined(s)
		return nil
	}
}

// MarshalJSON writes the normalized ids as a list.
func (r MediaRef) MarshalJSON() ([]byte, error) {
	ids := r.IDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}
