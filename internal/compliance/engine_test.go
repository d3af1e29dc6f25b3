package compliance

import (
	"reflect"
	"testing"
	"time"
)

// ── helpers ──

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func shift(id, emp, date string, startH, endH, breakMin int) Shift {
	return Shift{ID: id, EmployeeID: emp, Date: day(date), Start: startH * 60, End: endH * 60, BreakMinutes: breakMin}
}

func codes(fs []Finding) []Code {
	out := make([]Code, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Code)
	}
	return out
}

func hasCode(fs []Finding, c Code) bool {
	for _, f := range fs {
		if f.Code == c {
			return true
		}
	}
	return false
}

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

// fiveDayWeek 5 x 8h shifts with 30 min break, 37.5 worked hours.
func fiveDayWeek(emp string) []Shift {
	return []Shift{
		shift("s1", emp, "2026-03-02", 8, 16, 30),
		shift("s2", emp, "2026-03-03", 8, 16, 30),
		shift("s3", emp, "2026-03-04", 8, 16, 30),
		shift("s4", emp, "2026-03-05", 8, 16, 30),
		shift("s5", emp, "2026-03-06", 8, 16, 30),
	}
}

// ════════════════════════ CheckEmployeeWeek ════════════════════════

func TestCheckEmployeeWeek_Compliant(t *testing.T) {
	e := NewEngine(DefaultRules())

	r := e.CheckEmployeeWeek("e1", day(monday), fiveDayWeek("e1"), EmployeeContext{})
	if !r.Compliant {
		t.Fatalf("expected compliant, got %v", codes(r.Violations))
	}
	if len(r.Warnings) != 0 || len(r.Info) != 0 {
		t.Errorf("expected no warnings or info, got %v %v", codes(r.Warnings), codes(r.Info))
	}
}

func TestCheckEmployeeWeek_WeeklyHoursExceeded(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := append(fiveDayWeek("e1"),
		shift("s6", "e1", "2026-03-07", 8, 16, 30),
	) // 45h worked

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if r.Compliant || !hasCode(r.Violations, CodeWeeklyHoursExceeded) {
		t.Fatalf("expected WEEKLY_HOURS_EXCEEDED, got %v", codes(r.Violations))
	}
	if got := r.Violations[0].Details["total_hours"]; got != 45.0 {
		t.Errorf("expected total 45, got %v", got)
	}
}

func TestCheckEmployeeWeek_NearLimitIsInfo(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := append(fiveDayWeek("e1"), shift("s6", "e1", "2026-03-07", 9, 12, 0)) // 40.5h

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if !r.Compliant {
		t.Fatalf("expected compliant, got %v", codes(r.Violations))
	}
	if !hasCode(r.Info, CodeWeeklyHoursNearLimit) {
		t.Errorf("expected WEEKLY_HOURS_NEAR_LIMIT info, got %v", codes(r.Info))
	}
}

func TestCheckEmployeeWeek_DailyHoursExceeded(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := []Shift{shift("s1", "e1", "2026-03-02", 8, 18, 60)} // 9h worked

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if !hasCode(r.Violations, CodeDailyHoursExceeded) {
		t.Fatalf("expected DAILY_HOURS_EXCEEDED, got %v", codes(r.Violations))
	}
	if r.Violations[0].Date != "2026-03-02" {
		t.Errorf("expected finding dated 2026-03-02, got %q", r.Violations[0].Date)
	}
}

func TestCheckEmployeeWeek_SevenDaysNoDayOff(t *testing.T) {
	e := NewEngine(DefaultRules())
	var shifts []Shift
	for i := 0; i < 7; i++ {
		d := day(monday).AddDate(0, 0, i).Format(dateLayout)
		shifts = append(shifts, shift("s"+d, "e1", d, 10, 14, 0))
	}

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if !hasCode(r.Violations, CodeNoDayOff) {
		t.Fatalf("expected NO_DAY_OFF, got %v", codes(r.Violations))
	}
}

func TestCheckEmployeeWeek_RollingWindowAcrossWeeks(t *testing.T) {
	e := NewEngine(DefaultRules())
	// Thu-Sun of the previous week plus Mon-Wed: seven consecutive days.
	var shifts []Shift
	for _, d := range []string{"2026-02-26", "2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04"} {
		shifts = append(shifts, shift("s"+d, "e1", d, 10, 14, 0))
	}

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if !hasCode(r.Violations, CodeNoDayOff) {
		t.Fatalf("expected NO_DAY_OFF across the week boundary, got %v", codes(r.Violations))
	}
	// Only the three in-week shifts count toward weekly hours.
	if hasCode(r.Info, CodeWeeklyHoursNearLimit) {
		t.Error("out-of-week shifts must not count toward weekly hours")
	}
}

func TestCheckEmployeeWeek_BreakInsufficient(t *testing.T) {
	e := NewEngine(DefaultRules())
	cases := map[string]struct {
		shift Shift
		want  bool
	}{
		"8h span no break":        {shift("a", "e1", "2026-03-02", 8, 16, 0), true},
		"8h span 30 min":          {shift("a", "e1", "2026-03-02", 8, 16, 30), false},
		"9h span 30 min":          {shift("a", "e1", "2026-03-02", 8, 17, 30), true},
		"9h span 60 min":          {shift("a", "e1", "2026-03-02", 8, 17, 60), false},
		"under 8h span, no break": {shift("a", "e1", "2026-03-02", 8, 15, 0), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := e.CheckEmployeeWeek("e1", day(monday), []Shift{tc.shift}, EmployeeContext{})
			if got := hasCode(r.Violations, CodeBreakInsufficient); got != tc.want {
				t.Errorf("BREAK_INSUFFICIENT = %v, want %v (%v)", got, tc.want, codes(r.Violations))
			}
		})
	}
}

func TestCheckEmployeeWeek_SameDateIsDoubleBooking(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := []Shift{
		shift("a", "e1", "2026-03-02", 8, 11, 0),
		shift("b", "e1", "2026-03-02", 14, 17, 0),
	}

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	if !hasCode(r.Violations, CodeShiftOverlap) {
		t.Fatalf("expected SHIFT_OVERLAP, got %v", codes(r.Violations))
	}
}

func TestCheckEmployeeWeek_AvailabilityAndStoreHoursWarn(t *testing.T) {
	e := NewEngine(DefaultRules())
	ten, fourteen := 10*60, 14*60
	ec := EmployeeContext{Availability: map[int]Availability{
		0: {DayOfWeek: 0, IsAvailable: false},
		1: {DayOfWeek: 1, IsAvailable: true, PreferredStart: &ten, PreferredEnd: &fourteen},
	}}
	shifts := []Shift{
		shift("a", "e1", "2026-03-02", 8, 12, 0),
		shift("b", "e1", "2026-03-03", 9, 13, 0),
		shift("c", "e1", "2026-03-04", 19, 23, 0),
	}

	r := e.CheckEmployeeWeek("e1", day(monday), shifts, ec)
	if !r.Compliant {
		t.Fatalf("warnings must not block, got %v", codes(r.Violations))
	}
	want := []Code{CodeAvailabilityMismatch, CodeAvailabilityMismatch, CodeOutsideOperatingHours}
	if got := codes(r.Warnings); !reflect.DeepEqual(got, want) {
		t.Errorf("warnings = %v, want %v", got, want)
	}
}

func TestCheckEmployeeWeek_Deterministic(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := []Shift{
		shift("z", "e1", "2026-03-04", 8, 18, 0),
		shift("a", "e1", "2026-03-02", 8, 18, 0),
		shift("m", "e1", "2026-03-02", 9, 12, 0),
	}
	reversed := []Shift{shifts[2], shifts[1], shifts[0]}

	r1 := e.CheckEmployeeWeek("e1", day(monday), shifts, EmployeeContext{})
	r2 := e.CheckEmployeeWeek("e1", day(monday), reversed, EmployeeContext{})
	if !reflect.DeepEqual(r1, r2) {
		t.Fatalf("input order changed the result:\n%+v\n%+v", r1, r2)
	}
	want := []Code{CodeDailyHoursExceeded, CodeDailyHoursExceeded, CodeBreakInsufficient, CodeBreakInsufficient, CodeShiftOverlap}
	if got := codes(r1.Violations); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

// ════════════════════════ CheckShift ════════════════════════

func TestCheckShift_FortyHourEmployeeCannotExceedCap(t *testing.T) {
	e := NewEngine(DefaultRules())
	// 5 x 8h worked = 40h.
	existing := []Shift{
		shift("s1", "e1", "2026-03-02", 8, 17, 60),
		shift("s2", "e1", "2026-03-03", 8, 17, 60),
		shift("s3", "e1", "2026-03-04", 8, 17, 60),
		shift("s4", "e1", "2026-03-05", 8, 17, 60),
		shift("s5", "e1", "2026-03-06", 8, 17, 60),
	}
	proposed := shift("", "e1", "2026-03-07", 9, 17, 30) // 7.5h -> 47.5h

	r := e.CheckShift(proposed, existing, EmployeeContext{})
	if r.Compliant || !hasCode(r.Violations, CodeWeeklyHoursExceeded) {
		t.Fatalf("expected WEEKLY_HOURS_EXCEEDED, got %v", codes(r.Violations))
	}
	if !containsID(r.Violations[0].ShiftIDs, proposedShiftID) {
		t.Errorf("expected the proposed shift to be named, got %v", r.Violations[0].ShiftIDs)
	}
}

func TestCheckShift_ChristmasTimeOff(t *testing.T) {
	e := NewEngine(DefaultRules())
	ec := EmployeeContext{TimeOff: []TimeOff{{Start: day("2026-12-25"), End: day("2026-12-26")}}}

	for _, d := range []string{"2026-12-25", "2026-12-26"} {
		r := e.CheckShift(shift("x", "e1", d, 8, 16, 30), nil, ec)
		if !hasCode(r.Violations, CodeTimeOffConflict) {
			t.Errorf("%s: expected TIME_OFF_CONFLICT, got %v", d, codes(r.Violations))
		}
	}
	r := e.CheckShift(shift("x", "e1", "2026-12-24", 8, 16, 30), nil, ec)
	if !r.Compliant {
		t.Errorf("2026-12-24 must be allowed, got %v", codes(r.Violations))
	}
}

func TestCheckShift_IgnoresOtherDatesFindings(t *testing.T) {
	e := NewEngine(DefaultRules())
	others := []Shift{shift("bad", "e1", "2026-03-02", 8, 18, 0)} // daily and break violations on Monday

	r := e.CheckShift(shift("new", "e1", "2026-03-04", 8, 12, 0), others, EmployeeContext{})
	if !r.Compliant {
		t.Errorf("Monday findings must not attach to a Wednesday shift, got %v", codes(r.Violations))
	}
}

func TestCheckShift_ReplacesSameID(t *testing.T) {
	e := NewEngine(DefaultRules())
	others := []Shift{shift("s1", "e1", "2026-03-02", 8, 16, 30)}

	// Editing s1 in place is not a double booking with its old self.
	r := e.CheckShift(shift("s1", "e1", "2026-03-02", 9, 17, 30), others, EmployeeContext{})
	if !r.Compliant {
		t.Errorf("expected compliant edit, got %v", codes(r.Violations))
	}
}

// ════════════════════════ ValidateSchedule / Status ════════════════════════

func TestValidateSchedule_GroupsByEmployee(t *testing.T) {
	e := NewEngine(DefaultRules())
	shifts := append(fiveDayWeek("e1"), shift("x1", "e2", "2026-03-02", 8, 18, 0))

	r := e.ValidateSchedule(day(monday), shifts, map[string]EmployeeContext{})
	if r.Compliant {
		t.Fatal("expected violations for e2")
	}
	for _, f := range r.Violations {
		if f.EmployeeID != "e2" {
			t.Errorf("unexpected finding for %s: %s", f.EmployeeID, f.Code)
		}
	}
	if len(r.Violations) != 2 {
		t.Errorf("expected daily and break violations, got %v", codes(r.Violations))
	}
}

func TestStatus(t *testing.T) {
	e := NewEngine(DefaultRules())

	st := e.Status("e1", day(monday), fiveDayWeek("e1"))
	if st.TotalHours != 37.5 || st.HoursRemaining != 6.5 {
		t.Errorf("hours: total %v remaining %v", st.TotalHours, st.HoursRemaining)
	}
	if st.DaysWorked != 5 || st.DaysRemaining != 1 {
		t.Errorf("days: worked %d remaining %d", st.DaysWorked, st.DaysRemaining)
	}
	if st.IsAtLimit {
		t.Error("37.5h must not be at limit")
	}
}

func TestRequiredBreak(t *testing.T) {
	r := DefaultRules()
	cases := map[int]int{7 * 60: 0, 8 * 60: 30, 8*60 + 59: 30, 9 * 60: 60, 12 * 60: 60}
	for span, want := range cases {
		if got := r.RequiredBreak(span); got != want {
			t.Errorf("RequiredBreak(%d) = %d, want %d", span, got, want)
		}
	}
}
