package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

var ErrDuplicateDay = errors.New("day_of_week listed more than once")

// AvailabilityService weekly preferences. They are soft: the optimizer and
// the compliance engine treat them as hints, never as exclusions.
type AvailabilityService interface {
	Get(ctx context.Context, caller jwt.Identity, employeeID string) (*dto.AvailabilityResponse, error)
	// Set upserts the listed days; days not listed keep their value.
	Set(ctx context.Context, caller jwt.Identity, employeeID string, req *dto.SetAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService.
func NewAvailabilityService(repo *repository.Repository, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, logger: logger}
}

func (s *availabilityService) Get(ctx context.Context, caller jwt.Identity, employeeID string) (*dto.AvailabilityResponse, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, employeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	return s.week(ctx, emp.EmployeeID)
}

func (s *availabilityService) Set(ctx context.Context, caller jwt.Identity, employeeID string, req *dto.SetAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, employeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Days))
	rows := make([]model.Availability, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.DayOfWeek] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateDay, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true

		start, end, err := normalizeWindow(d.PreferredStart, d.PreferredEnd)
		if err != nil {
			return nil, err
		}
		row := model.Availability{
			EmployeeID:     emp.EmployeeID,
			DayOfWeek:      d.DayOfWeek,
			IsAvailable:    d.IsAvailable,
			PreferredStart: start,
			PreferredEnd:   end,
		}
		row.CreatedBy = actor(caller)
		row.UpdatedBy = actor(caller)
		rows = append(rows, row)
	}

	if err := s.repo.Availability.Upsert(ctx, rows); err != nil {
		s.logger.Error("upsert availability failed", zap.String("employee_id", emp.EmployeeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("availability updated", zap.String("employee_id", emp.EmployeeID), zap.Int("days", len(rows)))
	return s.week(ctx, emp.EmployeeID)
}

// week all seven days, defaulting missing rows to available.
func (s *availabilityService) week(ctx context.Context, employeeID string) (*dto.AvailabilityResponse, error) {
	rows, err := s.repo.Availability.ListByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("list availability failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	resp := &dto.AvailabilityResponse{EmployeeID: employeeID, Days: make([]dto.AvailabilityDay, 7)}
	for i := range resp.Days {
		resp.Days[i] = dto.AvailabilityDay{DayOfWeek: i, IsAvailable: true}
	}
	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		resp.Days[r.DayOfWeek] = dto.AvailabilityDay{
			DayOfWeek:      r.DayOfWeek,
			IsAvailable:    r.IsAvailable,
			PreferredStart: clockPtr(r.PreferredStart),
			PreferredEnd:   clockPtr(r.PreferredEnd),
		}
	}
	return resp, nil
}

// normalizeWindow requires both bounds or neither, with start before end.
func normalizeWindow(start, end *string) (*string, *string, error) {
	if start == nil && end == nil {
		return nil, nil, nil
	}
	if start == nil || end == nil {
		return nil, nil, fmt.Errorf("%w: preferred_start and preferred_end go together", ErrInvalidTimeRange)
	}
	s, e, err := parseShiftTimes(*start, *end, 0)
	if err != nil {
		return nil, nil, err
	}
	return strPtr(model.FormatClock(s)), strPtr(model.FormatClock(e)), nil
}

func clockPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(trimClock(*s))
}
