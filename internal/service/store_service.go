package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Store errors ──

var (
	ErrStoreCodeExists = errors.New("store code already in use")
	ErrStoreInUse      = errors.New("store still has active employees")
)

// StoreService store administration. Writes are admin-only; everyone else
// sees the store they belong to.
type StoreService interface {
	Create(ctx context.Context, caller jwt.Identity, req *dto.CreateStoreRequest) (*dto.StoreResponse, error)
	Get(ctx context.Context, caller jwt.Identity, id string) (*dto.StoreResponse, error)
	List(ctx context.Context, caller jwt.Identity) ([]dto.StoreResponse, error)
	Update(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateStoreRequest) (*dto.StoreResponse, error)
	Delete(ctx context.Context, caller jwt.Identity, id string) error
}

type storeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStoreService creates a StoreService.
func NewStoreService(repo *repository.Repository, logger *zap.Logger) StoreService {
	return &storeService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *storeService) Create(ctx context.Context, caller jwt.Identity, req *dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, err := s.repo.Store.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrStoreCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("check store code failed", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	store := &model.Store{
		Name:           req.Name,
		Code:           req.Code,
		Address:        req.Address,
		OperatingStart: defaultString(req.OperatingStart, "08:00"),
		OperatingEnd:   defaultString(req.OperatingEnd, "22:00"),
		Timezone:       defaultString(req.Timezone, "UTC"),
	}
	if err := validateHours(store.OperatingStart, store.OperatingEnd); err != nil {
		return nil, err
	}
	store.CreatedBy = actor(caller)
	store.UpdatedBy = actor(caller)

	if err := s.repo.Store.Create(ctx, store); err != nil {
		s.logger.Error("create store failed", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}
	s.logger.Info("store created", zap.String("store_id", store.StoreID), zap.String("code", store.Code))
	return toStoreResponse(store), nil
}

// ────────────────────── Get / List ──────────────────────

func (s *storeService) Get(ctx context.Context, caller jwt.Identity, id string) (*dto.StoreResponse, error) {
	if err := authorizeStore(caller, id); err != nil {
		return nil, err
	}
	store, err := loadStore(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

func (s *storeService) List(ctx context.Context, caller jwt.Identity) ([]dto.StoreResponse, error) {
	stores, err := s.repo.Store.List(ctx)
	if err != nil {
		s.logger.Error("list stores failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StoreResponse, 0, len(stores))
	for i := range stores {
		if authorizeStore(caller, stores[i].StoreID) != nil {
			continue
		}
		result = append(result, *toStoreResponse(&stores[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *storeService) Update(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	if caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	store, err := loadStore(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		store.Name = *req.Name
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.OperatingStart != nil {
		store.OperatingStart = *req.OperatingStart
	}
	if req.OperatingEnd != nil {
		store.OperatingEnd = *req.OperatingEnd
	}
	if req.Timezone != nil {
		store.Timezone = *req.Timezone
	}
	if err := validateHours(store.OperatingStart, store.OperatingEnd); err != nil {
		return nil, err
	}
	store.UpdatedBy = actor(caller)

	if err := s.repo.Store.Update(ctx, store); err != nil {
		s.logger.Error("update store failed", zap.String("store_id", id), zap.Error(err))
		return nil, err
	}
	return toStoreResponse(store), nil
}

// ────────────────────── Delete ──────────────────────

func (s *storeService) Delete(ctx context.Context, caller jwt.Identity, id string) error {
	if caller.Role != model.RoleAdmin {
		return ErrForbidden
	}
	if _, err := loadStore(ctx, s.repo, s.logger, id); err != nil {
		return err
	}
	active, err := s.repo.Employee.ListByStore(ctx, id, true)
	if err != nil {
		s.logger.Error("list employees failed", zap.String("store_id", id), zap.Error(err))
		return err
	}
	if len(active) > 0 {
		return ErrStoreInUse
	}

	if err := s.repo.Store.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete store failed", zap.String("store_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("store deleted", zap.String("store_id", id))
	return nil
}

// ── Internal ──

func validateHours(start, end string) error {
	_, _, err := parseShiftTimes(start, end, 0)
	return err
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toStoreResponse(store *model.Store) *dto.StoreResponse {
	return &dto.StoreResponse{
		ID:             store.StoreID,
		Name:           store.Name,
		Code:           store.Code,
		Address:        store.Address,
		OperatingStart: trimClock(store.OperatingStart),
		OperatingEnd:   trimClock(store.OperatingEnd),
		Timezone:       store.Timezone,
		CreatedAt:      formatTimestamp(store.CreatedAt),
		UpdatedAt:      formatTimestamp(store.UpdatedAt),
	}
}
