package spec

import (
	"strconv"
	"strings"

	"github.com/matzehuels/chartflow/pkg/errors"
)

// FitType selects how missing values of a series are filled.
type FitType string

const (
	FitNone      FitType = "none"
	FitCarry     FitType = "carry"
	FitLookahead FitType = "lookahead"
	FitNearest   FitType = "nearest"
	FitAverage   FitType = "average"
	FitLinear    FitType = "linear"
	FitExplicit  FitType = "explicit"
	FitZero      FitType = "zero"
)

// Fit is the missing-value policy of a series.
//
// Average and Linear need a known value on both sides of a gap. Gaps at the
// start or end of a series stay missing unless EndValue is set or
// EndNearest is true.
type Fit struct {
	Type  FitType `json:"type,omitempty" validate:"omitempty,oneof=none carry lookahead nearest average linear explicit zero"`
	Value float64 `json:"value,omitempty"`

	EndValue   *float64 `json:"end_value,omitempty"`
	EndNearest bool     `json:"end_nearest,omitempty"`
}

// Active reports whether the policy fills anything.
func (f Fit) Active() bool { return f.Type != "" && f.Type != FitNone }

// String renders the policy in the form accepted by [ParseFit].
func (f Fit) String() string {
	switch f.Type {
	case "":
		return string(FitNone)
	case FitExplicit:
		return string(FitExplicit) + ":" + strconv.FormatFloat(f.Value, 'g', -1, 64)
	}
	return string(f.Type)
}

// ParseFit parses "none", "carry", "lookahead", "nearest", "average",
// "linear", "zero" or "explicit:<value>". Average and linear accept an
// end policy suffix: "linear:nearest" or "average:<value>".
func ParseFit(s string) (Fit, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(strings.ToLower(s)), ":")
	f := Fit{Type: FitType(name)}
	switch f.Type {
	case "":
		f.Type = FitNone
	case FitNone, FitCarry, FitLookahead, FitNearest, FitZero:
		if hasArg {
			return Fit{}, errors.New(errors.ErrCodeInvalidConfig, "fit %q takes no argument", name)
		}
	case FitExplicit:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Fit{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "explicit fit needs a numeric value")
		}
		f.Value = v
	case FitAverage, FitLinear:
		if !hasArg {
			break
		}
		if arg == "nearest" {
			f.EndNearest = true
			break
		}
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Fit{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid end value for %s fit", name)
		}
		f.EndValue = &v
	default:
		return Fit{}, errors.New(errors.ErrCodeInvalidConfig, "unknown fit %q", s)
	}
	return f, nil
}
