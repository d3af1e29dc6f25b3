package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// ── iCalendar ──────────────────────────────────────────────
//
// Time off travels as all-day VEVENTs. DTEND of an all-day event is
// exclusive; stored ranges are inclusive. Shifts travel as timed events in
// the store timezone.
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	icsProductID   = "-//Picker Scheduler//Schedules//EN"
)

// calendarRange one imported event as an inclusive date range.
type calendarRange struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

func newCalendar(name string) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(name)
	return cal
}

// addAllDayEvent writes [start, end] inclusive.
func addAllDayEvent(cal *ics.Calendar, uid, summary, description string, start, end time.Time, stamp time.Time) {
	evt := cal.AddEvent(uid)
	evt.SetDtStampTime(stamp)
	evt.SetAllDayStartAt(model.DateOnly(start))
	evt.SetAllDayEndAt(model.DateOnly(end).AddDate(0, 0, 1))
	evt.SetSummary(summary)
	if description != "" {
		evt.SetDescription(description)
	}
}

// addShiftEvent writes one shift as a timed event.
func addShiftEvent(cal *ics.Calendar, s *model.Shift, summary, location string, loc *time.Location, stamp time.Time) {
	evt := cal.AddEvent(s.ShiftID)
	evt.SetDtStampTime(stamp)
	evt.SetStartAt(s.StartAt(loc))
	evt.SetEndAt(s.EndAt(loc))
	evt.SetSummary(summary)
	if location != "" {
		evt.SetLocation(location)
	}
	if s.BreakMinutes > 0 {
		evt.SetDescription(fmt.Sprintf("Break: %d min", s.BreakMinutes))
	}
}

// parseTimeOffCalendar reads every VEVENT as a date range. Events without a
// usable start are counted as skipped.
func parseTimeOffCalendar(r io.Reader, loc *time.Location) ([]calendarRange, int, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	var ranges []calendarRange
	skipped := 0
	for _, evt := range cal.Events() {
		rng, ok := parseRangeEvent(evt, loc)
		if !ok {
			skipped++
			continue
		}
		ranges = append(ranges, rng)
	}
	return ranges, skipped, nil
}

func parseRangeEvent(evt *ics.VEvent, loc *time.Location) (calendarRange, bool) {
	start, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return calendarRange{}, false
	}
	end, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// no DTEND: a single day
		end = start
		if allDay {
			end = start.AddDate(0, 0, 1)
		}
	}

	last := model.DateOnly(end)
	// an end at midnight, all-day or timed, does not touch that day
	if end.After(start) && end.Hour() == 0 && end.Minute() == 0 {
		last = last.AddDate(0, 0, -1)
	}
	first := model.DateOnly(start)
	if last.Before(first) {
		last = first
	}

	out := calendarRange{UID: evt.Id(), Start: first, End: last}
	if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil {
		out.Summary = strings.TrimSpace(summary.Value)
	}
	return out, true
}

// parseICSDateTime reads a DATE or DATE-TIME property. allDay is true for
// VALUE=DATE values.
func parseICSDateTime(evt *ics.VEvent, name ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(name)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", name)
	}
	val := strings.TrimSpace(prop.Value)

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.Parse("20060102T150405", val); err == nil {
		in := loc
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				in = tzLoc
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, in).In(loc), false, nil
	}
	if t, err := time.Parse("20060102", val); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("unparseable date %q", val)
}
