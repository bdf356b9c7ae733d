package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds spec identifiers; they end up in cache keys and JSON.
const maxIDLength = 256

// ValidateID validates a spec identifier (series, axis or group id).
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "%s id %q has surrounding whitespace", kind, id)
	}

	return nil
}

// ValidateRange validates a pixel range used for a scale.
// Both ends must be finite; an empty range (start == end) is allowed.
func ValidateRange(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return New(ErrCodeInvalidInput, "range [%g, %g] must be finite", start, end)
	}
	return nil
}

// ValidateDimensions validates chart width and height.
func ValidateDimensions(width, height float64) error {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return New(ErrCodeInvalidConfig, "chart dimensions must be positive, got %gx%g", width, height)
	}
	return nil
}

// ValidateRotation validates a chart rotation in degrees.
func ValidateRotation(rotation int) error {
	switch rotation {
	case 0, 90, -90, 180:
		return nil
	}
	return New(ErrCodeInvalidConfig, "rotation must be one of 0, 90, -90, 180, got %d", rotation)
}
