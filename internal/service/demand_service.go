package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// DemandService the hourly demand grid produced by the forecaster.
type DemandService interface {
	// Upsert replaces required hours per (store, date, hour). A later entry
	// for the same slot wins.
	Upsert(ctx context.Context, caller jwt.Identity, req *dto.UpsertDemandRequest) (*dto.UpsertDemandResponse, error)
	Get(ctx context.Context, caller jwt.Identity, q *dto.DemandQuery) (*dto.DemandGridResponse, error)
}

type demandService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDemandService creates a DemandService.
func NewDemandService(repo *repository.Repository, logger *zap.Logger) DemandService {
	return &demandService{repo: repo, logger: logger}
}

func (s *demandService) Upsert(ctx context.Context, caller jwt.Identity, req *dto.UpsertDemandRequest) (*dto.UpsertDemandResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, req.StoreID); err != nil {
		return nil, err
	}
	if _, err := loadStore(ctx, s.repo, s.logger, req.StoreID); err != nil {
		return nil, err
	}

	type slot struct {
		date string
		hour int
	}
	index := make(map[slot]int, len(req.Entries))
	rows := make([]model.DemandRequirement, 0, len(req.Entries))
	for _, e := range req.Entries {
		d, err := parseDate(e.Date)
		if err != nil {
			return nil, err
		}
		if e.Hour < 0 || e.Hour > 23 || e.RequiredHours < 0 || math.IsNaN(e.RequiredHours) {
			return nil, fmt.Errorf("%w: hour %d on %s", ErrInvalidTimeRange, e.Hour, e.Date)
		}
		k := slot{date: e.Date, hour: e.Hour}
		if i, ok := index[k]; ok {
			rows[i].RequiredHours = e.RequiredHours
			continue
		}
		row := model.DemandRequirement{
			StoreID:       req.StoreID,
			Date:          d,
			Hour:          e.Hour,
			RequiredHours: e.RequiredHours,
		}
		row.CreatedBy = actor(caller)
		row.UpdatedBy = actor(caller)
		index[k] = len(rows)
		rows = append(rows, row)
	}

	if err := s.repo.Demand.Upsert(ctx, rows); err != nil {
		s.logger.Error("upsert demand failed", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("demand upserted", zap.String("store_id", req.StoreID), zap.Int("rows", len(rows)))
	return &dto.UpsertDemandResponse{Upserted: len(rows)}, nil
}

func (s *demandService) Get(ctx context.Context, caller jwt.Identity, q *dto.DemandQuery) (*dto.DemandGridResponse, error) {
	if err := authorizeStore(caller, q.StoreID); err != nil {
		return nil, err
	}
	ws, err := parseWeekStart(q.WeekStart)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Demand.ListByStoreRange(ctx, q.StoreID, ws, ws.AddDate(0, 0, 6))
	if err != nil {
		s.logger.Error("list demand failed", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, err
	}

	resp := &dto.DemandGridResponse{
		StoreID:   q.StoreID,
		WeekStart: ws.Format(model.DateLayout),
		Days:      make([]dto.DemandDay, 7),
	}
	for i := range resp.Days {
		resp.Days[i].Date = ws.AddDate(0, 0, i).Format(model.DateLayout)
	}
	for _, r := range rows {
		day := int(model.DateOnly(r.Date).Sub(ws).Hours() / 24)
		if day < 0 || day > 6 || r.Hour < 0 || r.Hour > 23 {
			continue
		}
		resp.Days[day].Hours[r.Hour] = r.RequiredHours
		resp.Days[day].TotalHours += r.RequiredHours
		resp.TotalHours += r.RequiredHours
	}
	return resp, nil
}
