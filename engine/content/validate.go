package content

import "strings"

// MinTextLength is the minimum trimmed length of text worth embedding.
// Shorter inputs are rejected before any provider call is made.
const MinTextLength = 3

// ValidateText checks that text is embeddable. Returns ErrTextTooShort
// (wrapped) for empty or near-empty input.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinTextLength {
		return NewValidationError("text", trimmed, ErrTextTooShort)
	}
	return nil
}

// ValidateRecord checks that a record carries an id and yields embeddable
// canonical text.
func ValidateRecord(rec Record) error {
	if rec.ContentID() == "" {
		return NewValidationError("id", "", ErrMissingID)
	}
	if !rec.Kind().Valid() {
		return NewValidationError("kind", string(rec.Kind()), ErrUnknownKind)
	}
	return ValidateText(rec.CanonicalText())
}
