package optimizer

import "math"

const eps = 1e-9

// cell what one employee works on one day.
type cell struct {
	on       bool
	start    int
	end      int
	brk      int
	template int
	locked   bool
	pinned   bool
	shiftID  string
}

func (c cell) worked() int { return c.end - c.start - c.brk }

type dayKey struct{ emp, day int }

// state a hard-feasible partial schedule plus cached staffing.
type state struct {
	p         *Problem
	overrides map[dayKey]*Override
	cells     [][DaysPerWeek]cell
	minutes   []int
	staffing  [DaysPerWeek][HoursPerDay]float64
}

func newState(p *Problem, overrides map[dayKey]*Override) *state {
	return &state{
		p:         p,
		overrides: overrides,
		cells:     make([][DaysPerWeek]cell, len(p.Employees)),
		minutes:   make([]int, len(p.Employees)),
	}
}

func (s *state) clone() *state {
	c := &state{
		p:         s.p,
		overrides: s.overrides,
		cells:     make([][DaysPerWeek]cell, len(s.cells)),
		minutes:   make([]int, len(s.minutes)),
		staffing:  s.staffing,
	}
	copy(c.cells, s.cells)
	copy(c.minutes, s.minutes)
	return c
}

// place adds (sign=+1) or removes (sign=-1) a cell's presence from the grid.
func (s *state) place(e, d int, c cell, sign int) {
	forHours(c.start, c.end, func(h int, frac float64) {
		s.staffing[d][h] += float64(sign) * frac
	})
	s.minutes[e] += sign * c.worked()
	if sign > 0 {
		s.cells[e][d] = c
	} else {
		s.cells[e][d] = cell{}
	}
}

// costDelta objective change of adding (sign=+1) or removing (sign=-1) presence.
func (s *state) costDelta(d, start, end int, sign float64) float64 {
	delta := 0.0
	forHours(start, end, func(h int, frac float64) {
		req := s.p.Demand[d][h]
		cur := s.staffing[d][h]
		delta += s.bucketCost(req, cur+sign*frac) - s.bucketCost(req, cur)
	})
	return delta
}

func (s *state) bucketCost(req, staffed float64) float64 {
	if staffed < req {
		return s.p.Weights.Under * (req - staffed)
	}
	return s.p.Weights.Over * (staffed - req)
}

// canAssign checks every hard constraint for a new shift of worked minutes on day d.
func (s *state) canAssign(e, d, worked int) bool {
	if s.cells[e][d].on {
		return false
	}
	emp := &s.p.Employees[e]
	if emp.TimeOff[d] || emp.Busy[d] {
		return false
	}
	ov := s.overrides[dayKey{e, d}]
	if ov != nil && ov.CannotWork {
		return false
	}
	if emp.Unavailable[d] && (ov == nil || !ov.MustWork) {
		return false
	}
	if s.minutes[e]+worked > emp.RemainingMinutes {
		return false
	}
	if s.p.MaxDailyMinutes > 0 && worked > s.p.MaxDailyMinutes {
		return false
	}
	return s.windowsAllow(e, d)
}

// windowsAllow reports whether working day d keeps every rolling 7-day window
// containing d within MaxDaysPerWindow.
func (s *state) windowsAllow(e, d int) bool {
	limit := s.p.MaxDaysPerWindow
	if limit <= 0 {
		return true
	}
	for start := d - 6; start <= d; start++ {
		count := 1
		for x := start; x < start+7; x++ {
			if x != d && s.worksOn(e, x) {
				count++
			}
		}
		if count > limit {
			return false
		}
	}
	return true
}

// worksOn day x relative to week start, -6..12.
func (s *state) worksOn(e, x int) bool {
	emp := &s.p.Employees[e]
	switch {
	case x < -windowBefore:
		return false
	case x < 0:
		return emp.WorkedBefore[x+windowBefore]
	case x < DaysPerWeek:
		return s.cells[e][x].on
	case x < DaysPerWeek+windowAfter:
		return emp.WorkedAfter[x-DaysPerWeek]
	default:
		return false
	}
}

func (s *state) templateCell(t Template) cell {
	return cell{on: true, start: t.Start, end: t.End, brk: t.BreakMinutes, template: t.Index}
}

// objective total weighted under and over staffing.
func (s *state) objective() float64 {
	total := 0.0
	for d := 0; d < DaysPerWeek; d++ {
		for h := 0; h < HoursPerDay; h++ {
			total += s.bucketCost(s.p.Demand[d][h], s.staffing[d][h])
		}
	}
	return total
}

// coverage returns matched, under and over picker-hours.
func (s *state) coverage() (matched, under, over float64) {
	for d := 0; d < DaysPerWeek; d++ {
		for h := 0; h < HoursPerDay; h++ {
			req, got := s.p.Demand[d][h], s.staffing[d][h]
			matched += math.Min(req, got)
			if got < req {
				under += req - got
			} else {
				over += got - req
			}
		}
	}
	return matched, under, over
}

// fairness population standard deviation of worked hours across employees.
func (s *state) fairness() float64 {
	n := len(s.minutes)
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, m := range s.minutes {
		mean += float64(m) / 60
	}
	mean /= float64(n)
	variance := 0.0
	for _, m := range s.minutes {
		diff := float64(m)/60 - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(n))
}

// better compares by objective, then fairness.
func better(a, b *state) bool {
	oa, ob := a.objective(), b.objective()
	if oa < ob-eps {
		return true
	}
	if oa > ob+eps {
		return false
	}
	return a.fairness() < b.fairness()-eps
}

// forHours calls fn with each hour bucket [start,end) touches and the
// fraction of that hour covered.
func forHours(start, end int, fn func(h int, frac float64)) {
	for h := start / 60; h < HoursPerDay && h*60 < end; h++ {
		lo, hi := h*60, h*60+60
		if start > lo {
			lo = start
		}
		if end < hi {
			hi = end
		}
		if hi > lo {
			fn(h, float64(hi-lo)/60)
		}
	}
}
