package compliance

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// proposedShiftID stands in for a shift that has no ID yet.
const proposedShiftID = "proposed"

// Engine evaluates Rules. It is safe for concurrent use.
type Engine struct {
	rules Rules
}

// NewEngine creates an Engine.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules the configured limits.
func (e *Engine) Rules() Rules { return e.rules }

// CheckEmployeeWeek evaluates every rule for one employee's week starting at
// weekStart. shifts may include shifts outside the week; those only feed the
// rolling day-off windows. Shifts of other employees are ignored.
func (e *Engine) CheckEmployeeWeek(employeeID string, weekStart time.Time, shifts []Shift, ec EmployeeContext) Result {
	return e.check(employeeID, dateOnly(weekStart), shifts, ec, nil)
}

// CheckShift evaluates the week containing shift with shift added to others.
// Only findings about the shift itself or the whole week are kept.
func (e *Engine) CheckShift(shift Shift, others []Shift, ec EmployeeContext) Result {
	if shift.ID == "" {
		shift.ID = proposedShiftID
	}
	combined := make([]Shift, 0, len(others)+1)
	for _, s := range others {
		if s.ID != shift.ID {
			combined = append(combined, s)
		}
	}
	combined = append(combined, shift)

	full := e.check(shift.EmployeeID, WeekStart(shift.Date), combined, ec, &shift)
	keep := func(in []Finding) []Finding {
		out := make([]Finding, 0, len(in))
		for _, f := range in {
			if f.Date == "" || containsID(f.ShiftIDs, shift.ID) {
				out = append(out, f)
			}
		}
		return out
	}
	return newResult(keep(full.Violations), keep(full.Warnings), keep(full.Info))
}

// Status hour and day budget for one employee's week.
func (e *Engine) Status(employeeID string, weekStart time.Time, shifts []Shift) EmployeeStatus {
	ws := dateOnly(weekStart)
	we := ws.AddDate(0, 0, 7)
	worked := 0
	days := map[string]struct{}{}
	for _, s := range shifts {
		d := dateOnly(s.Date)
		if s.EmployeeID != employeeID || d.Before(ws) || !d.Before(we) {
			continue
		}
		worked += s.WorkedMinutes()
		days[d.Format(dateLayout)] = struct{}{}
	}
	remaining := e.rules.MaxWeeklyMinutes - worked
	if remaining < 0 {
		remaining = 0
	}
	daysRemaining := e.rules.MaxDaysPerWindow - len(days)
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	return EmployeeStatus{
		EmployeeID:     employeeID,
		WeekStart:      ws.Format(dateLayout),
		TotalHours:     minutesToHours(worked),
		HoursRemaining: minutesToHours(remaining),
		DaysWorked:     len(days),
		DaysRemaining:  daysRemaining,
		IsNearLimit:    worked > e.rules.MaxWeeklyMinutes-e.rules.NearLimitMinutes,
		IsAtLimit:      remaining == 0 || daysRemaining == 0,
	}
}

// ValidateSchedule checks every employee that appears in shifts and merges the
// findings, dropping duplicates with the same code, employee and date.
func (e *Engine) ValidateSchedule(weekStart time.Time, shifts []Shift, contexts map[string]EmployeeContext) Result {
	byEmployee := map[string][]Shift{}
	for _, s := range shifts {
		byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
	}
	ids := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := map[string]struct{}{}
	var violations, warnings, info []Finding
	for _, id := range ids {
		r := e.CheckEmployeeWeek(id, weekStart, byEmployee[id], contexts[id])
		violations = appendUnique(violations, r.Violations, seen)
		warnings = appendUnique(warnings, r.Warnings, seen)
		info = appendUnique(info, r.Info, seen)
	}
	return newResult(violations, warnings, info)
}

func (e *Engine) check(employeeID string, ws time.Time, shifts []Shift, ec EmployeeContext, focus *Shift) Result {
	we := ws.AddDate(0, 0, 7)
	var all, week []Shift
	for _, s := range shifts {
		if s.EmployeeID != employeeID {
			continue
		}
		s.Date = dateOnly(s.Date)
		all = append(all, s)
		if !s.Date.Before(ws) && s.Date.Before(we) {
			week = append(week, s)
		}
	}
	sort.Slice(week, func(i, j int) bool {
		if !week[i].Date.Equal(week[j].Date) {
			return week[i].Date.Before(week[j].Date)
		}
		if week[i].Start != week[j].Start {
			return week[i].Start < week[j].Start
		}
		return week[i].ID < week[j].ID
	})

	var violations, warnings, info []Finding
	add := func(f Finding) {
		f.EmployeeID = employeeID
		switch f.Severity {
		case SeverityViolation:
			violations = append(violations, f)
		case SeverityWarning:
			warnings = append(warnings, f)
		default:
			info = append(info, f)
		}
	}

	e.checkWeeklyHours(week, add)
	e.checkDays(week, add)
	e.checkRollingWindow(all, ws, focus, add)
	for _, s := range week {
		e.checkShiftRules(s, ec, add)
	}
	return newResult(violations, warnings, info)
}

func (e *Engine) checkWeeklyHours(week []Shift, add func(Finding)) {
	total := 0
	ids := make([]string, 0, len(week))
	for _, s := range week {
		total += s.WorkedMinutes()
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	details := map[string]interface{}{
		"total_hours": minutesToHours(total),
		"max_hours":   minutesToHours(e.rules.MaxWeeklyMinutes),
	}
	switch {
	case total > e.rules.MaxWeeklyMinutes:
		add(Finding{
			Code:     CodeWeeklyHoursExceeded,
			Severity: SeverityViolation,
			ShiftIDs: ids,
			Message: fmt.Sprintf("weekly hours %.2f exceed the maximum of %.2f",
				minutesToHours(total), minutesToHours(e.rules.MaxWeeklyMinutes)),
			Details: details,
		})
	case total > e.rules.MaxWeeklyMinutes-e.rules.NearLimitMinutes:
		add(Finding{
			Code:     CodeWeeklyHoursNearLimit,
			Severity: SeverityInfo,
			ShiftIDs: ids,
			Message: fmt.Sprintf("weekly hours %.2f are within %.2f of the maximum",
				minutesToHours(total), minutesToHours(e.rules.NearLimitMinutes)),
			Details: details,
		})
	}
}

// checkDays covers the per-date rules: daily hours and double booking.
func (e *Engine) checkDays(week []Shift, add func(Finding)) {
	byDate := map[string][]Shift{}
	var dates []string
	for _, s := range week {
		key := s.Date.Format(dateLayout)
		if _, ok := byDate[key]; !ok {
			dates = append(dates, key)
		}
		byDate[key] = append(byDate[key], s)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day := byDate[date]
		ids := make([]string, 0, len(day))
		worked := 0
		for _, s := range day {
			ids = append(ids, s.ID)
			worked += s.WorkedMinutes()
		}
		sort.Strings(ids)

		if worked > e.rules.MaxDailyMinutes {
			add(Finding{
				Code:     CodeDailyHoursExceeded,
				Severity: SeverityViolation,
				Date:     date,
				ShiftIDs: ids,
				Message: fmt.Sprintf("%.2f hours on %s exceed the daily maximum of %.2f",
					minutesToHours(worked), date, minutesToHours(e.rules.MaxDailyMinutes)),
				Details: map[string]interface{}{
					"total_hours": minutesToHours(worked),
					"max_hours":   minutesToHours(e.rules.MaxDailyMinutes),
				},
			})
		}
		if len(day) > 1 {
			overlapping := false
			for i := 1; i < len(day); i++ {
				if day[i].Start < day[i-1].End {
					overlapping = true
				}
			}
			msg := fmt.Sprintf("%d shifts scheduled on %s", len(day), date)
			if overlapping {
				msg = fmt.Sprintf("overlapping shifts scheduled on %s", date)
			}
			add(Finding{
				Code:     CodeShiftOverlap,
				Severity: SeverityViolation,
				Date:     date,
				ShiftIDs: ids,
				Message:  msg,
				Details:  map[string]interface{}{"overlapping": overlapping},
			})
		}
	}
}

// checkRollingWindow flags the first 7-day window touching the week that holds
// more worked dates than allowed. With a focus shift only windows containing
// its date are considered.
func (e *Engine) checkRollingWindow(all []Shift, ws time.Time, focus *Shift, add func(Finding)) {
	worked := map[string][]string{}
	for _, s := range all {
		key := s.Date.Format(dateLayout)
		worked[key] = append(worked[key], s.ID)
	}
	for offset := -6; offset <= 6; offset++ {
		start := ws.AddDate(0, 0, offset)
		end := start.AddDate(0, 0, 6)
		if focus != nil {
			fd := dateOnly(focus.Date)
			if fd.Before(start) || fd.After(end) {
				continue
			}
		}
		var ids []string
		days := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if shiftIDs, ok := worked[d.Format(dateLayout)]; ok {
				days++
				ids = append(ids, shiftIDs...)
			}
		}
		if days <= e.rules.MaxDaysPerWindow {
			continue
		}
		sort.Strings(ids)
		add(Finding{
			Code:     CodeNoDayOff,
			Severity: SeverityViolation,
			ShiftIDs: ids,
			Message: fmt.Sprintf("%d days worked between %s and %s, at most %d allowed",
				days, start.Format(dateLayout), end.Format(dateLayout), e.rules.MaxDaysPerWindow),
			Details: map[string]interface{}{
				"window_start": start.Format(dateLayout),
				"window_end":   end.Format(dateLayout),
				"days_worked":  days,
				"max_days":     e.rules.MaxDaysPerWindow,
			},
		})
		return
	}
}

func (e *Engine) checkShiftRules(s Shift, ec EmployeeContext, add func(Finding)) {
	date := s.Date.Format(dateLayout)
	ids := []string{s.ID}

	span := s.SpanMinutes()
	if required := e.rules.RequiredBreak(span); s.BreakMinutes < required {
		add(Finding{
			Code:     CodeBreakInsufficient,
			Severity: SeverityViolation,
			Date:     date,
			ShiftIDs: ids,
			Message: fmt.Sprintf("a %.2f hour shift requires a %d minute break, got %d",
				minutesToHours(span), required, s.BreakMinutes),
			Details: map[string]interface{}{"required_minutes": required, "break_minutes": s.BreakMinutes},
		})
	}

	for _, off := range ec.TimeOff {
		if off.Covers(s.Date) {
			add(Finding{
				Code:     CodeTimeOffConflict,
				Severity: SeverityViolation,
				Date:     date,
				ShiftIDs: ids,
				Message: fmt.Sprintf("shift on %s falls inside approved time off %s to %s",
					date, off.Start.Format(dateLayout), off.End.Format(dateLayout)),
			})
			break
		}
	}

	if av, ok := ec.Availability[dayIndex(s.Date)]; ok {
		switch {
		case !av.IsAvailable:
			add(Finding{
				Code:     CodeAvailabilityMismatch,
				Severity: SeverityWarning,
				Date:     date,
				ShiftIDs: ids,
				Message:  fmt.Sprintf("employee marked unavailable on %s", s.Date.Weekday()),
			})
		case (av.PreferredStart != nil && s.Start < *av.PreferredStart) ||
			(av.PreferredEnd != nil && s.End > *av.PreferredEnd):
			add(Finding{
				Code:     CodeAvailabilityMismatch,
				Severity: SeverityWarning,
				Date:     date,
				ShiftIDs: ids,
				Message:  fmt.Sprintf("shift on %s is outside preferred hours", date),
			})
		}
	}

	if s.Start < e.rules.OpenMinute || s.End > e.rules.CloseMinute {
		add(Finding{
			Code:     CodeOutsideOperatingHours,
			Severity: SeverityWarning,
			Date:     date,
			ShiftIDs: ids,
			Message:  fmt.Sprintf("shift on %s is outside store operating hours", date),
		})
	}
}

func newResult(violations, warnings, info []Finding) Result {
	sortFindings(violations)
	sortFindings(warnings)
	sortFindings(info)
	return Result{
		Compliant:  len(violations) == 0,
		Violations: nonNil(violations),
		Warnings:   nonNil(warnings),
		Info:       nonNil(info),
	}
}

func sortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if codeOrder[a.Code] != codeOrder[b.Code] {
			return codeOrder[a.Code] < codeOrder[b.Code]
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		return firstID(a.ShiftIDs) < firstID(b.ShiftIDs)
	})
}

func appendUnique(dst, src []Finding, seen map[string]struct{}) []Finding {
	for _, f := range src {
		key := string(f.Code) + "|" + f.EmployeeID + "|" + f.Date
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, f)
	}
	return dst
}

func nonNil(fs []Finding) []Finding {
	if fs == nil {
		return []Finding{}
	}
	return fs
}

func firstID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// RoundHours rounds to two decimals for display.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
