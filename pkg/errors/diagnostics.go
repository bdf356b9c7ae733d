package errors

import (
	"fmt"
	"strings"
)

// Diagnostic records a recoverable condition the pipeline degraded around.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Subject string `json:"subject,omitempty"` // e.g. "series:a", "axis:left", "y:__global__"
	Message string `json:"message"`
}

// String formats the diagnostic as "CODE [subject]: message".
func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Code, d.Subject, d.Message)
}

// Err converts the diagnostic into an *Error with the same code.
func (d Diagnostic) Err() *Error {
	return New(d.Code, "%s", d.Message)
}

// Diagnostics is an ordered list of diagnostics collected during one run.
// A nil *Diagnostics is valid and discards everything added to it.
type Diagnostics []Diagnostic

// Add appends a diagnostic. It is a no-op on a nil receiver.
func (d *Diagnostics) Add(code Code, subject, format string, args ...any) {
	if d == nil {
		return
	}
	*d = append(*d, Diagnostic{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether any diagnostic carries code.
func (d Diagnostics) Has(code Code) bool {
	for _, x := range d {
		if x.Code == code {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics carrying code.
func (d Diagnostics) Filter(code Code) Diagnostics {
	var out Diagnostics
	for _, x := range d {
		if x.Code == code {
			out = append(out, x)
		}
	}
	return out
}

// String joins all diagnostics, one per line.
func (d Diagnostics) String() string {
	lines := make([]string, len(d))
	for i, x := range d {
		lines[i] = x.String()
	}
	return strings.Join(lines, "\n")
}
