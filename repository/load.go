package repository

import (
	"context"
	"errors"
	"strconv"

	"marina/models"

	"gorm.io/gorm"
)

// LoadRepository defines the interface for load data operations.
type LoadRepository interface {
	Create(ctx context.Context, load *models.Load) error
	// GetByID returns nil without error when the load does not exist.
	GetByID(ctx context.Context, id uint) (*models.Load, error)
	// List returns one page of loads plus the total number of loads.
	List(ctx context.Context, limit, offset int) ([]*models.Load, int64, error)
	Update(ctx context.Context, load *models.Load) error
	// Delete removes the load and, when it has a carrier, drops the load
	// reference from that boat, all in one transaction.
	Delete(ctx context.Context, load *models.Load) error
}

type loadRepository struct {
	db *gorm.DB
}

// NewLoadRepository creates a new load repository.
func NewLoadRepository(db *gorm.DB) LoadRepository {
	return &loadRepository{db: db}
}

func (r *loadRepository) Create(ctx context.Context, load *models.Load) error {
	load.Carrier = models.Carrier{}
	return r.db.WithContext(ctx).Create(load).Error
}

func (r *loadRepository) GetByID(ctx context.Context, id uint) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).First(&load, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *loadRepository) List(ctx context.Context, limit, offset int) ([]*models.Load, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Load{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loads []*models.Load
	err := r.db.WithContext(ctx).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&loads).Error
	return loads, total, err
}

func (r *loadRepository) Update(ctx context.Context, load *models.Load) error {
	return r.db.WithContext(ctx).Save(load).Error
}

func (r *loadRepository) Delete(ctx context.Context, load *models.Load) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !load.Carrier.IsNone() {
			carrierID, err := strconv.ParseUint(load.Carrier.ID, 10, 64)
			if err == nil {
				var boat models.Boat
				err := tx.First(&boat, uint(carrierID)).Error
				if err == nil {
					boat.Loads = boat.Loads.Remove(strconv.FormatUint(uint64(load.ID), 10))
					if err := tx.Save(&boat).Error; err != nil {
						return err
					}
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
		}
		return tx.Delete(&models.Load{}, load.ID).Error
	})
}
