package errors

import "fmt"

// ErrorCode represents a deckpack error code.
type ErrorCode string

const (
	ErrPackageCorrupt   ErrorCode = "PACKAGE_CORRUPT"    // archive unreadable or decompression failed
	ErrDatabaseNotFound ErrorCode = "DATABASE_NOT_FOUND" // no collection database inside the package
	ErrModelNotFound    ErrorCode = "MODEL_NOT_FOUND"
	ErrNoteNotFound     ErrorCode = "NOTE_NOT_FOUND"
	ErrFieldNotFound    ErrorCode = "FIELD_NOT_FOUND"
	ErrIndexOutOfRange  ErrorCode = "INDEX_OUT_OF_RANGE"
	ErrNoDeckTarget     ErrorCode = "NO_DECK_TARGET" // no existing card to infer a deck id from
	ErrIOFailure        ErrorCode = "IO_FAILURE"
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST" // malformed tool or CLI arguments
	ErrNoSession        ErrorCode = "NO_SESSION"      // operation requires an open package
	ErrInternal         ErrorCode = "INTERNAL"
)

// DeckError represents a structured error with a code and details.
type DeckError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DeckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPackageCorrupt creates an error for unreadable archives or corrupt payloads.
func NewPackageCorrupt(err error) *DeckError {
	msg := "package is corrupt"
	if err != nil {
		msg = fmt.Sprintf("package is corrupt: %v", err)
	}
	return &DeckError{
		Code:    ErrPackageCorrupt,
		Message: msg,
	}
}

// NewDatabaseNotFound creates an error for packages missing all known database variants.
func NewDatabaseNotFound() *DeckError {
	return &DeckError{
		Code:    ErrDatabaseNotFound,
		Message: "no collection database found in package",
	}
}

// NewModelNotFound creates an error for unknown note-type ids.
func NewModelNotFound(modelID int64) *DeckError {
	return &DeckError{
		Code:    ErrModelNotFound,
		Message: fmt.Sprintf("model not found: %d", modelID),
		Details: map[string]any{"model_id": modelID},
	}
}

// NewNoteNotFound creates an error for unknown note ids.
func NewNoteNotFound(noteID int64) *DeckError {
	return &DeckError{
		Code:    ErrNoteNotFound,
		Message: fmt.Sprintf("note not found: %d", noteID),
		Details: map[string]any{"note_id": noteID},
	}
}

// NewFieldNotFound creates an error for field names absent from a model.
func NewFieldNotFound(name string) *DeckError {
	return &DeckError{
		Code:    ErrFieldNotFound,
		Message: fmt.Sprintf("field %q not found", name),
		Details: map[string]any{"field": name},
	}
}

// NewIndexOutOfRange creates an error for image indexes outside the valid range.
func NewIndexOutOfRange(index, count int) *DeckError {
	return &DeckError{
		Code:    ErrIndexOutOfRange,
		Message: fmt.Sprintf("image index %d out of range (have %d)", index, count),
		Details: map[string]any{"index": index, "count": count},
	}
}

// NewNoDeckTarget creates an error for create operations on a deck with no cards.
func NewNoDeckTarget() *DeckError {
	return &DeckError{
		Code:    ErrNoDeckTarget,
		Message: "no cards in deck to determine deck id",
	}
}

// NewIOFailure creates an error for filesystem write failures.
func NewIOFailure(err error) *DeckError {
	msg := "i/o failure"
	if err != nil {
		msg = err.Error()
	}
	return &DeckError{
		Code:    ErrIOFailure,
		Message: msg,
	}
}

// NewInvalidRequest creates an error for malformed arguments.
func NewInvalidRequest(msg string) *DeckError {
	return &DeckError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNoSession creates an error for operations invoked before a package is opened.
func NewNoSession() *DeckError {
	return &DeckError{
		Code:    ErrNoSession,
		Message: "no deck package is open",
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *DeckError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DeckError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a DeckError with the given code.
func Is(err error, code ErrorCode) bool {
	if dErr, ok := err.(*DeckError); ok {
		return dErr.Code == code
	}
	return false
}
