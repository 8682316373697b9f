package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// RefKind tells how a Ref identifies its target.
type RefKind int

const (
	RefKindID RefKind = iota
	RefKindRecord
	RefKindName
)

func (k RefKind) String() string {
	switch k {
	case RefKindID:
		return "id"
	case RefKindRecord:
		return "record"
	case RefKindName:
		return "name"
	default:
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
}

// Ref points at a model or a project by id, by a partial record carrying an
// id, or by display name. It is resolved once into a canonical id.
type Ref struct {
	kind RefKind
	id   string
	name string
}

// RefByID wraps an id that the caller already knows.
func RefByID(id string) Ref {
	return Ref{kind: RefKindID, id: id}
}

// RefByName wraps a display name.
func RefByName(name string) Ref {
	return Ref{kind: RefKindName, name: name}
}

// RefByRecord wraps a partial record such as a decoded REST object. Only the
// "id" and "name" string fields are looked at.
func RefByRecord(record map[string]any) Ref {
	r := Ref{kind: RefKindRecord}
	if v, ok := record["id"].(string); ok {
		r.id = v
	}
	if v, ok := record["name"].(string); ok {
		r.name = v
	}
	return r
}

// ParseRef treats an id-shaped string as an id and anything else as a name.
func ParseRef(s string) Ref {
	if IsValidID(s) {
		return RefByID(s)
	}
	return RefByName(s)
}

func (r Ref) Kind() RefKind { return r.kind }

func (r Ref) ID() string { return r.id }

func (r Ref) Name() string { return r.name }

func (r Ref) String() string {
	switch r.kind {
	case RefKindID:
		return r.id
	case RefKindRecord:
		if r.id != "" {
			return r.id
		}
		return r.name
	default:
		return r.name
	}
}

// IsValidID reports whether s has the id format used by the model-management
// service. It does not check that anything with that id exists.
func IsValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
