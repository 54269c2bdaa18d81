package backoffice

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrItemNotFound is returned when a draft item id is unknown.
	ErrItemNotFound = errors.New("draft item not found")
	// ErrSubmitting is returned when the draft is changed while it is being submitted.
	ErrSubmitting = errors.New("purchase is being submitted")
	// ErrDuplicateBarcode is returned when a new product reuses a barcode
	// already present in the draft or in the catalog.
	ErrDuplicateBarcode = errors.New("barcode is already in use")
	// ErrFieldLocked is returned when changing a form field that must follow the catalog.
	ErrFieldLocked = errors.New("field follows the catalog product")
	// ErrNotEditing is returned when saving an item while no item is being edited.
	ErrNotEditing = errors.New("no item is being edited")
	// ErrStaleAnswer is returned when a barcode answer arrives after the
	// barcode field was changed. The answer is dropped.
	ErrStaleAnswer = errors.New("barcode changed before the answer arrived")
)

// ValidationError is a local validation failure, detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FieldErrors maps a form field to the rule it broke.
type FieldErrors map[string]string

func (v FieldErrors) Error() string {
	var b strings.Builder
	b.WriteString("invalid fields:")
	for _, field := range slices.Sorted(maps.Keys(v)) {
		fmt.Fprintf(&b, " %s (%s)", field, v[field])
	}
	return b.String()
}
