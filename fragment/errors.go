package fragment

import "fmt"

// ValidationError means the input used to make a fragment was missing or
// malformed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NotFoundError means the metadata record (or, for data reads, the data
// record) of a fragment does not exist.
type NotFoundError struct {
	OwnerID string
	ID      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fragment %s not found", e.ID)
}

// UnsupportedConversionError means the fragment exists but cannot be served
// in the requested representation.
type UnsupportedConversionError struct {
	ID     string
	Type   string // the fragment's base type
	Target string // the requested type or format hint
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("fragment %s of type %s cannot be served as %s", e.ID, e.Type, e.Target)
}

// TypeMismatchError means new data was offered with a base type different
// from the stored one.
type TypeMismatchError struct {
	ID        string
	Stored    string
	Requested string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("fragment %s has type %s, not %s", e.ID, e.Stored, e.Requested)
}
