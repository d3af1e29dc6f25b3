package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Solver turns a Problem into a Solution. Implementations must honor ctx and
// return their best hard-feasible incumbent when it expires.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// GreedySolver constructive greedy, local search and perturbation restarts.
type GreedySolver struct{}

// NewGreedySolver creates a GreedySolver.
func NewGreedySolver() *GreedySolver { return &GreedySolver{} }

var _ Solver = (*GreedySolver)(nil)

// run per-solve bookkeeping.
type run struct {
	ctx        context.Context
	p          *Problem
	order      []int
	iterations int
	timedOut   bool
	warnings   []string
}

func (r *run) expired() bool {
	if r.timedOut {
		return true
	}
	if r.ctx.Err() != nil {
		r.timedOut = true
	}
	return r.timedOut
}

func (r *run) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Solve runs the search until no restart improves the incumbent or ctx ends.
func (g *GreedySolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	started := time.Now()
	if err := p.Validate(); err != nil {
		return &Solution{Status: StatusError, Assignments: []Assignment{}, Warnings: []string{err.Error()}}, err
	}
	prob := *p
	p = &prob
	if p.Weights.Under == 0 && p.Weights.Over == 0 {
		p.Weights = DefaultWeights()
	}
	restarts := p.Restarts
	if restarts < 0 {
		restarts = 0
	}

	r := &run{ctx: ctx, p: p, order: employeeOrder(p)}
	overrides := r.indexOverrides()

	base := newState(p, overrides)
	r.seedLocks(base)
	r.seedMustWork(base)

	best := base.clone()
	r.construct(best)
	r.improve(best)

	rng := rand.New(rand.NewSource(p.Seed))
	for stale := 0; stale < restarts && !r.expired() && best.objective() > eps; {
		cand := best.clone()
		perturb(cand, rng)
		r.construct(cand)
		r.improve(cand)
		r.iterations++
		if better(cand, best) {
			best = cand
			stale = 0
		} else {
			stale++
		}
	}

	sol := r.finish(best, overrides)
	sol.Stats.SolveTimeSeconds = round2(time.Since(started).Seconds())
	return sol, nil
}

func employeeOrder(p *Problem) []int {
	order := make([]int, len(p.Employees))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return p.Employees[order[a]].ID < p.Employees[order[b]].ID
	})
	return order
}

func (r *run) employeeIndex() map[string]int {
	idx := make(map[string]int, len(r.p.Employees))
	for i, e := range r.p.Employees {
		idx[e.ID] = i
	}
	return idx
}

func (r *run) indexOverrides() map[dayKey]*Override {
	idx := r.employeeIndex()
	out := map[dayKey]*Override{}
	for i := range r.p.Overrides {
		o := &r.p.Overrides[i]
		e, ok := idx[o.EmployeeID]
		if !ok || o.Day < 0 || o.Day >= DaysPerWeek {
			r.warnf("override for %s on day %d ignored: unknown employee or day", o.EmployeeID, o.Day)
			continue
		}
		out[dayKey{e, o.Day}] = o
	}
	return out
}

// seedLocks places locked assignments. Locks are kept even when they clash with
// time off or budgets, with a warning, since they describe existing shifts.
func (r *run) seedLocks(s *state) {
	idx := r.employeeIndex()
	for _, l := range r.p.Locks {
		e, ok := idx[l.EmployeeID]
		if !ok || l.Day < 0 || l.Day >= DaysPerWeek || l.End <= l.Start {
			r.warnf("locked shift for %s on day %d ignored: unknown employee or invalid shape", l.EmployeeID, l.Day)
			continue
		}
		if s.cells[e][l.Day].on {
			r.warnf("locked shift for %s on day %d ignored: employee already locked that day", l.EmployeeID, l.Day)
			continue
		}
		emp := r.p.Employees[e]
		if emp.TimeOff[l.Day] {
			r.warnf("locked shift for %s on day %d overlaps approved time off", emp.ID, l.Day)
		}
		c := cell{on: true, start: l.Start, end: l.End, brk: l.BreakMinutes, template: l.TemplateIndex, locked: true, shiftID: l.ShiftID}
		s.place(e, l.Day, c, +1)
		if s.minutes[e] > emp.RemainingMinutes {
			r.warnf("locked shifts for %s exceed the remaining weekly hours", emp.ID)
		}
	}
}

// seedMustWork forces the preferred (or best feasible) template on must_work days.
func (r *run) seedMustWork(s *state) {
	keys := make([]dayKey, 0, len(s.overrides))
	for k, o := range s.overrides {
		if o.MustWork {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].emp != keys[j].emp {
			return r.p.Employees[keys[i].emp].ID < r.p.Employees[keys[j].emp].ID
		}
		return keys[i].day < keys[j].day
	})

	for _, k := range keys {
		o := s.overrides[k]
		emp := r.p.Employees[k.emp]
		switch {
		case s.cells[k.emp][k.day].on:
			continue
		case emp.TimeOff[k.day]:
			r.warnf("must_work for %s on day %d ignored: approved time off", emp.ID, k.day)
			continue
		}

		chosen := -1
		if o.PreferredTemplate != nil {
			t := r.p.Templates[*o.PreferredTemplate]
			if s.canAssign(k.emp, k.day, t.WorkedMinutes()) {
				chosen = t.Index
			}
		}
		if chosen < 0 {
			bestDelta := math.Inf(1)
			for _, t := range r.p.Templates {
				if !s.canAssign(k.emp, k.day, t.WorkedMinutes()) {
					continue
				}
				if d := s.costDelta(k.day, t.Start, t.End, +1); d < bestDelta-eps {
					bestDelta, chosen = d, t.Index
				}
			}
		}
		if chosen < 0 {
			r.warnf("must_work for %s on day %d ignored: no template fits the hour and day limits", emp.ID, k.day)
			continue
		}
		c := s.templateCell(r.p.Templates[chosen])
		c.pinned = true
		s.place(k.emp, k.day, c, +1)
	}
}

// construct fills the hardest days first, then tops up across the week.
func (r *run) construct(s *state) {
	days := make([]int, DaysPerWeek)
	unmet := make([]float64, DaysPerWeek)
	for d := range days {
		days[d] = d
		for h := 0; h < HoursPerDay; h++ {
			if gap := r.p.Demand[d][h] - s.staffing[d][h]; gap > 0 {
				unmet[d] += gap
			}
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return unmet[days[i]] > unmet[days[j]] })

	for _, d := range days {
		for r.addBest(s, []int{d}) {
		}
	}
	for r.addBest(s, days) {
	}
}

// addBest applies the single add with the most negative objective delta.
// Ties go to the employee with fewer hours, then the lower employee id.
func (r *run) addBest(s *state, days []int) bool {
	if r.expired() {
		return false
	}
	bestDelta := -eps
	bestE, bestD, bestT := -1, -1, -1
	for _, d := range days {
		for _, e := range r.order {
			for _, t := range r.p.Templates {
				if !s.canAssign(e, d, t.WorkedMinutes()) {
					continue
				}
				delta := s.costDelta(d, t.Start, t.End, +1)
				if delta < bestDelta-eps || (bestE >= 0 && math.Abs(delta-bestDelta) <= eps && s.minutes[e] < s.minutes[bestE]) {
					bestDelta, bestE, bestD, bestT = delta, e, d, t.Index
				}
			}
		}
	}
	if bestE < 0 {
		return false
	}
	s.place(bestE, bestD, s.templateCell(r.p.Templates[bestT]), +1)
	r.iterations++
	return true
}

// improve runs remove, re-template and transfer moves until none helps.
func (r *run) improve(s *state) {
	for !r.expired() {
		improved := false
		for r.addBest(s, allDays()) {
			improved = true
		}
		for _, e := range r.order {
			for d := 0; d < DaysPerWeek; d++ {
				if r.expired() {
					return
				}
				if r.reshape(s, e, d) {
					improved = true
				}
			}
		}
		for _, e := range r.order {
			for d := 0; d < DaysPerWeek; d++ {
				if r.expired() {
					return
				}
				if r.transfer(s, e, d) {
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

// reshape removes the shift or moves it to a different template when that lowers the objective.
func (r *run) reshape(s *state, e, d int) bool {
	c := s.cells[e][d]
	if !c.on || c.locked || c.pinned {
		return false
	}
	s.place(e, d, c, -1)
	removeDelta := -s.costDelta(d, c.start, c.end, +1)

	bestDelta, bestT := removeDelta, -1
	for _, t := range r.p.Templates {
		if t.Index == c.template || !s.canAssign(e, d, t.WorkedMinutes()) {
			continue
		}
		delta := removeDelta + s.costDelta(d, t.Start, t.End, +1)
		if delta < bestDelta-eps {
			bestDelta, bestT = delta, t.Index
		}
	}

	switch {
	case bestDelta >= -eps:
		s.place(e, d, c, +1)
		return false
	case bestT >= 0:
		s.place(e, d, s.templateCell(r.p.Templates[bestT]), +1)
	}
	r.iterations++
	return true
}

// transfer hands a shift to an employee with fewer hours. Coverage is
// unchanged, so this only ever lowers the hour spread.
func (r *run) transfer(s *state, e, d int) bool {
	c := s.cells[e][d]
	if !c.on || c.locked || c.pinned {
		return false
	}
	w := c.worked()
	for _, o := range r.order {
		if o == e || s.minutes[e]-s.minutes[o] <= w {
			continue
		}
		if !s.canAssign(o, d, w) {
			continue
		}
		s.place(e, d, c, -1)
		s.place(o, d, c, +1)
		r.iterations++
		return true
	}
	return false
}

// perturb drops about a fifth of the movable shifts.
func perturb(s *state, rng *rand.Rand) {
	var movable []dayKey
	for e := range s.cells {
		for d := 0; d < DaysPerWeek; d++ {
			if c := s.cells[e][d]; c.on && !c.locked && !c.pinned {
				movable = append(movable, dayKey{e, d})
			}
		}
	}
	if len(movable) == 0 {
		return
	}
	rng.Shuffle(len(movable), func(i, j int) { movable[i], movable[j] = movable[j], movable[i] })
	n := (len(movable) + 4) / 5
	for _, k := range movable[:n] {
		s.place(k.emp, k.day, s.cells[k.emp][k.day], -1)
	}
}

func allDays() []int { return []int{0, 1, 2, 3, 4, 5, 6} }

// finish turns the incumbent into a Solution with status, stats and warnings.
func (r *run) finish(s *state, overrides map[dayKey]*Override) *Solution {
	p := r.p
	sol := &Solution{Assignments: []Assignment{}}
	scheduled := map[int]bool{}
	totalMinutes := 0
	for e := range s.cells {
		for d := 0; d < DaysPerWeek; d++ {
			c := s.cells[e][d]
			if !c.on {
				continue
			}
			scheduled[e] = true
			totalMinutes += c.worked()
			sol.Assignments = append(sol.Assignments, Assignment{
				EmployeeID:    p.Employees[e].ID,
				Day:           d,
				Start:         c.start,
				End:           c.end,
				BreakMinutes:  c.brk,
				TemplateIndex: c.template,
				Locked:        c.locked,
				ShiftID:       c.shiftID,
			})
		}
	}
	sort.Slice(sol.Assignments, func(i, j int) bool {
		a, b := sol.Assignments[i], sol.Assignments[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.EmployeeID < b.EmployeeID
	})

	totalDemand := p.TotalDemand()
	matched, under, over := s.coverage()
	coverage := 100.0
	if totalDemand > eps {
		coverage = matched / totalDemand * 100
	}
	objective := s.objective()

	sol.Stats = Stats{
		TotalShifts:          len(sol.Assignments),
		TotalHours:           round2(float64(totalMinutes) / 60),
		EmployeesScheduled:   len(scheduled),
		TotalEmployees:       len(p.Employees),
		CoveragePercent:      round2(coverage),
		TotalDemandHours:     round2(totalDemand),
		ScheduledDemandHours: round2(matched),
		UnderstaffedHours:    round2(under),
		OverstaffedHours:     round2(over),
		FairnessStdDev:       round2(s.fairness()),
		Objective:            round2(objective),
		Iterations:           r.iterations,
		LockedShiftsCount:    len(p.Locks),
		ManualOverridesCount: len(overrides),
	}

	reachedTarget := coverage+eps >= p.MinCoveragePercent
	switch {
	case r.timedOut:
		sol.Status = StatusTimeout
	case objective <= eps:
		sol.Status = StatusOptimal
	case reachedTarget && under <= eps:
		sol.Status = StatusOptimal
	case reachedTarget:
		sol.Status = StatusFeasible
	default:
		sol.Status = StatusInfeasible
	}

	if !reachedTarget {
		r.warnf("coverage %.1f%% is below the %.1f%% target", coverage, p.MinCoveragePercent)
	}
	if sol.Status == StatusInfeasible {
		need := totalDemand * p.MinCoveragePercent / 100
		r.warnf("capacity shortage: %.1f demand hours must be covered for %.0f%% coverage but at most %.1f are schedulable (%.1f covered)",
			need, p.MinCoveragePercent, capacityBound(s), matched)
	}
	if sol.Status == StatusTimeout {
		r.warnf("search stopped at the deadline, returning the best schedule found")
	}

	var idle []string
	for _, e := range r.order {
		if !scheduled[e] {
			name := p.Employees[e].Name
			if name == "" {
				name = p.Employees[e].ID
			}
			idle = append(idle, name)
		}
	}
	if len(idle) > 0 && len(idle) < len(p.Employees) {
		r.warnf("%d employees have no shifts: %s", len(idle), strings.Join(idle, ", "))
	}

	sol.Warnings = r.warnings
	if sol.Warnings == nil {
		sol.Warnings = []string{}
	}
	return sol
}

// capacityBound optimistic presence hours the roster could supply ignoring demand shape.
func capacityBound(s *state) float64 {
	total := 0.0
	for e := range s.p.Employees {
		total += employeeBound(s, e)
	}
	return total
}

// employeeBound one employee's share of capacityBound: locked hours plus the
// longest template on every open day the budgets still allow.
func employeeBound(s *state, e int) float64 {
	p := s.p
	longest, shortestWorked := 0, math.MaxInt32
	for _, t := range p.Templates {
		if span := t.End - t.Start; span > longest {
			longest = span
		}
		if w := t.WorkedMinutes(); w < shortestWorked {
			shortestWorked = w
		}
	}
	emp := p.Employees[e]
	total := 0.0
	days := 0
	for d := 0; d < DaysPerWeek; d++ {
		c := s.cells[e][d]
		if c.locked {
			total += float64(c.end-c.start) / 60
			continue
		}
		ov := s.overrides[dayKey{e, d}]
		if emp.TimeOff[d] || emp.Busy[d] || (ov != nil && ov.CannotWork) || (emp.Unavailable[d] && (ov == nil || !ov.MustWork)) {
			continue
		}
		days++
	}
	if p.MaxDaysPerWindow > 0 && days > p.MaxDaysPerWindow {
		days = p.MaxDaysPerWindow
	}
	if byHours := emp.RemainingMinutes / shortestWorked; byHours < days {
		days = byHours
	}
	return total + float64(days*longest)/60
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
