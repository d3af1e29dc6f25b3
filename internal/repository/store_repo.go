package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// StoreRepository store data access.
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id string) (*model.Store, error)
	GetByCode(ctx context.Context, code string) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepo creates a StoreRepository.
func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("store_id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) GetByCode(ctx context.Context, code string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) List(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Order("name ASC").Find(&stores).Error
	return stores, err
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

func (r *storeRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Store{}).
		Where("store_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		}).Error
}
