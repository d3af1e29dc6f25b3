package optimizer

import (
	"context"
	"math"
)

// Feasibility verdicts of a capacity estimate.
const (
	FeasibilityLikely   = "likely"
	FeasibilityPossible = "possible"
	FeasibilityUnlikely = "unlikely"
)

// likelyUtilization demand-to-capacity ratio below which a solve is expected to reach the target.
const likelyUtilization = 85.0

// Capacity compares a week's demand with what the roster could staff.
type Capacity struct {
	DemandHours float64 `json:"demand_hours"`
	// TargetHours demand hours that must be covered to reach MinCoveragePercent.
	TargetHours float64 `json:"target_hours"`
	// CapacityHours optimistic presence hours, ignoring where the demand falls.
	CapacityHours      float64 `json:"capacity_hours"`
	EmployeeCount      int     `json:"employee_count"`
	AvailableEmployees int     `json:"available_employees"`
	UtilizationNeeded  float64 `json:"utilization_needed_percent"`
	Feasibility        string  `json:"feasibility"`
}

// EstimateCapacity bounds what a solve of p can reach without running it.
// Locks, time off, availability, overrides and remaining budgets are honored.
func EstimateCapacity(p *Problem) (*Capacity, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &run{ctx: context.Background(), p: p, order: employeeOrder(p)}
	s := newState(p, r.indexOverrides())
	r.seedLocks(s)

	out := &Capacity{
		DemandHours:   round2(p.TotalDemand()),
		TargetHours:   round2(p.TotalDemand() * p.MinCoveragePercent / 100),
		CapacityHours: round2(capacityBound(s)),
		EmployeeCount: len(p.Employees),
	}
	for e := range p.Employees {
		if employeeBound(s, e) > 0 {
			out.AvailableEmployees++
		}
	}

	switch {
	case out.DemandHours == 0:
		out.Feasibility = FeasibilityLikely
	case out.CapacityHours == 0:
		out.Feasibility = FeasibilityUnlikely
	default:
		out.UtilizationNeeded = round1(out.DemandHours / out.CapacityHours * 100)
		switch {
		case out.CapacityHours < out.TargetHours:
			out.Feasibility = FeasibilityUnlikely
		case out.UtilizationNeeded < likelyUtilization:
			out.Feasibility = FeasibilityLikely
		default:
			out.Feasibility = FeasibilityPossible
		}
	}
	return out, nil
}

// Staffing presence grid of the assignments, in picker-hours per bucket.
// Breaks are not subtracted, matching the objective.
func Staffing(as []Assignment) [DaysPerWeek][HoursPerDay]float64 {
	var grid [DaysPerWeek][HoursPerDay]float64
	for _, a := range as {
		if a.Day < 0 || a.Day >= DaysPerWeek || a.End <= a.Start {
			continue
		}
		forHours(a.Start, a.End, func(h int, frac float64) {
			grid[a.Day][h] += frac
		})
	}
	return grid
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
