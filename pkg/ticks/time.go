package ticks

import (
	"math"
	"time"
)

type timeUnit int

const (
	unitSecond timeUnit = iota
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

// timeStep is one calendar-aware tick interval.
type timeStep struct {
	unit   timeUnit
	n      int
	approx time.Duration
	layout string
}

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var timeSteps = []timeStep{
	{unitSecond, 1, time.Second, "15:04:05"},
	{unitSecond, 5, 5 * time.Second, "15:04:05"},
	{unitSecond, 15, 15 * time.Second, "15:04:05"},
	{unitSecond, 30, 30 * time.Second, "15:04:05"},
	{unitMinute, 1, time.Minute, "15:04"},
	{unitMinute, 5, 5 * time.Minute, "15:04"},
	{unitMinute, 15, 15 * time.Minute, "15:04"},
	{unitMinute, 30, 30 * time.Minute, "15:04"},
	{unitHour, 1, time.Hour, "15:04"},
	{unitHour, 3, 3 * time.Hour, "15:04"},
	{unitHour, 6, 6 * time.Hour, "15:04"},
	{unitHour, 12, 12 * time.Hour, "Jan 02 15:04"},
	{unitDay, 1, day, "Jan 02"},
	{unitDay, 2, 2 * day, "Jan 02"},
	{unitWeek, 1, week, "Jan 02"},
	{unitMonth, 1, month, "Jan 2006"},
	{unitMonth, 3, 3 * month, "Jan 2006"},
	{unitYear, 1, year, "2006"},
}

const maxTimeTicks = 10000

// timeValues returns calendar-aligned ticks, in epoch milliseconds, for
// about count ticks over [lo, hi], and the layout to label them with.
// All calendar arithmetic is done in UTC.
func timeValues(lo, hi float64, count int) ([]float64, string) {
	span := hi - lo
	if span < 1000 {
		vals, _ := niceValues(lo, hi, count)
		return vals, "15:04:05.000"
	}
	for _, st := range timeSteps {
		if int(span/float64(st.approx.Milliseconds()))+1 > count+1 {
			continue
		}
		if vals := stepTimes(st, lo, hi); len(vals) <= count+1 {
			return vals, st.layout
		}
	}
	// Multi-year spans step through nice numbers of years.
	y0 := float64(time.UnixMilli(int64(lo)).UTC().Year())
	y1 := float64(time.UnixMilli(int64(hi)).UTC().Year())
	years, level := niceValues(y0, y1, count)
	mant, exp := stepAt(level)
	st := timeStep{unit: unitYear, n: max(1, int(multiple(1, mant, exp))), layout: "2006"}
	if len(years) == 0 {
		return nil, st.layout
	}
	return stepTimes(st, lo, hi), st.layout
}

func stepTimes(st timeStep, lo, hi float64) []float64 {
	start := time.UnixMilli(int64(math.Ceil(lo))).UTC()
	end := time.UnixMilli(int64(math.Floor(hi))).UTC()
	t := floorTime(st, start)
	if t.Before(start) {
		t = addStep(st, t)
	}
	var out []float64
	for i := 0; !t.After(end) && i < maxTimeTicks; i++ {
		out = append(out, float64(t.UnixMilli()))
		t = addStep(st, t)
	}
	return out
}

func floorTime(st timeStep, t time.Time) time.Time {
	y, m, d := t.Date()
	switch st.unit {
	case unitSecond, unitMinute, unitHour:
		return t.Truncate(st.approx)
	case unitDay:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case unitWeek:
		midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		offset := (int(midnight.Weekday()) + 6) % 7 // weeks start on Monday
		return midnight.AddDate(0, 0, -offset)
	case unitMonth:
		m -= (m - 1) % time.Month(st.n)
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case unitYear:
		return time.Date(y-y%st.n, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func addStep(st timeStep, t time.Time) time.Time {
	switch st.unit {
	case unitDay:
		return t.AddDate(0, 0, st.n)
	case unitWeek:
		return t.AddDate(0, 0, 7*st.n)
	case unitMonth:
		return t.AddDate(0, st.n, 0)
	case unitYear:
		return t.AddDate(st.n, 0, 0)
	}
	return t.Add(st.approx)
}
