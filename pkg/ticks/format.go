package ticks

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// FormatNumber prints v with up to 12 significant digits and no trailing
// zeros, so float noise such as 0.30000000000000004 prints as 0.3.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 12, 64), 64)
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatterByName returns a named label formatter. Names take an optional
// argument after a colon:
//
//	number[:decimals]   fixed decimals, or shortest form without an argument
//	percent[:decimals]  v*100 followed by %
//	si[:decimals]       SI prefixes (1.2k, 3M)
//	comma[:decimals]    thousands separators
//	time[:layout]       Go time layout applied in UTC, default RFC 3339
func FormatterByName(name string) (spec.Formatter, error) {
	kind, arg, hasArg := strings.Cut(name, ":")
	decimals := -1
	if hasArg && kind != "time" {
		d, err := strconv.Atoi(arg)
		if err != nil || d < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "formatter %q: bad decimals %q", name, arg)
		}
		decimals = d
	}

	num := func(f func(float64) string) spec.Formatter {
		return func(v any) string {
			x, ok := spec.ToFloat(v)
			if !ok {
				return spec.FormatKey(v)
			}
			return f(x)
		}
	}

	switch kind {
	case "", "number":
		return num(func(x float64) string {
			if decimals < 0 {
				return FormatNumber(x)
			}
			return strconv.FormatFloat(x, 'f', decimals, 64)
		}), nil
	case "percent":
		return num(func(x float64) string {
			if decimals < 0 {
				return FormatNumber(x*100) + "%"
			}
			return strconv.FormatFloat(x*100, 'f', decimals, 64) + "%"
		}), nil
	case "si":
		return num(func(x float64) string {
			d := decimals
			if d < 0 {
				d = 2
			}
			return strings.ReplaceAll(humanize.SIWithDigits(x, d, ""), " ", "")
		}), nil
	case "comma":
		return num(func(x float64) string {
			if decimals < 0 {
				return humanize.Commaf(x)
			}
			return humanize.CommafWithDigits(x, decimals)
		}), nil
	case "time":
		layout := time.RFC3339
		if hasArg && arg != "" {
			layout = arg
		}
		return TimeFormatter(layout), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown formatter %q", name)
}

// TimeFormatter formats epoch milliseconds, or a time.Time, with layout in UTC.
func TimeFormatter(layout string) spec.Formatter {
	return func(v any) string {
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(layout)
		}
		ms, ok := spec.ToFloat(v)
		if !ok {
			return spec.FormatKey(v)
		}
		return time.UnixMilli(int64(ms)).UTC().Format(layout)
	}
}
