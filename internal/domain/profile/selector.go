package profile

import "fmt"

type selectorKind int

const (
	byIdentity selectorKind = iota
	byKey
	byPosition
)

// Selector addresses one sub-record inside a section.
//
// Persisted records are addressed by their backend identity. Records that
// have not been persisted are addressed by the client-local key they received
// when they were added or hydrated; the key stays valid after the backend
// assigns an identity. Positions are accepted for callers that only know a
// display index, but a position is only meaningful against the snapshot it
// was read from.
type Selector struct {
	kind     selectorKind
	id       ID
	key      string
	position int
}

func ByIdentity(id ID) Selector {
	return Selector{kind: byIdentity, id: id}
}

func ByKey(key string) Selector {
	return Selector{kind: byKey, key: key}
}

func ByPosition(i int) Selector {
	return Selector{kind: byPosition, position: i}
}

// SelectorFor picks the addressing rule for r: identity when persisted,
// local key otherwise.
func SelectorFor(r SubRecord) Selector {
	if !r.Identity().IsZero() {
		return ByIdentity(r.Identity())
	}
	return ByKey(r.LocalKey())
}

func (s Selector) String() string {
	switch s.kind {
	case byIdentity:
		return fmt.Sprintf("id:%s", s.id)
	case byKey:
		return fmt.Sprintf("key:%s", s.key)
	default:
		return fmt.Sprintf("pos:%d", s.position)
	}
}

func locate[T any, P recordPtr[T]](items []T, sel Selector) int {
	switch sel.kind {
	case byPosition:
		if sel.position >= 0 && sel.position < len(items) {
			return sel.position
		}
		return -1
	case byIdentity:
		if sel.id.IsZero() {
			return -1
		}
		for i := range items {
			if P(&items[i]).Identity() == sel.id {
				return i
			}
		}
	case byKey:
		if sel.key == "" {
			return -1
		}
		for i := range items {
			if P(&items[i]).LocalKey() == sel.key {
				return i
			}
		}
	}
	return -1
}
