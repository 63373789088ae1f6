package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"marina/models"

	"gorm.io/gorm"
)

// BoatRepository defines the interface for boat data operations, including
// the cascades that keep user.boats and load.carrier consistent.
type BoatRepository interface {
	// Create persists the boat and appends a reference to the owner's boat
	// list in one transaction. collectionURL is the canonical /boats URL used
	// to build the stored self-link.
	Create(ctx context.Context, boat *models.Boat, collectionURL string) error
	// GetByID returns nil without error when the boat does not exist.
	GetByID(ctx context.Context, id uint) (*models.Boat, error)
	// List returns one page of the owner's boats plus the owner's total.
	List(ctx context.Context, owner string, limit, offset int) ([]*models.Boat, int64, error)
	Update(ctx context.Context, boat *models.Boat) error
	// Delete removes the boat, clears the carrier of every load it carries
	// and drops the owner's boat reference, all in one transaction.
	Delete(ctx context.Context, boat *models.Boat) error
	// AttachLoad places the load onto the boat: sets load.carrier and appends
	// the load reference to boat.loads in one transaction. Returns
	// models.ErrLoadHasCarrier if the load is already attached anywhere, and
	// models.ErrBoatNotFound / models.ErrLoadNotFound when either entity was
	// deleted since the caller looked it up.
	AttachLoad(ctx context.Context, boatID, loadID uint, carrierSelf, loadSelf string) error
	// DetachLoad removes the load from the boat. Returns
	// models.ErrLoadNotOnBoat if the load's carrier is not this boat, and the
	// same not-found sentinels as AttachLoad.
	DetachLoad(ctx context.Context, boatID, loadID uint) error
}

type boatRepository struct {
	db *gorm.DB
}

// NewBoatRepository creates a new boat repository.
func NewBoatRepository(db *gorm.DB) BoatRepository {
	return &boatRepository{db: db}
}

func (r *boatRepository) Create(ctx context.Context, boat *models.Boat, collectionURL string) error {
	if boat.Loads == nil {
		boat.Loads = models.LoadRefs{}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(boat).Error; err != nil {
			return err
		}

		// A subject that never completed the login flow has no user entity;
		// the boat is still created, just without the back reference.
		var owner models.User
		err := tx.Where("unique_id = ?", boat.Owner).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		boatID := strconv.FormatUint(uint64(boat.ID), 10)
		owner.Boats = append(owner.Boats, models.BoatRef{
			ID:   boatID,
			Self: fmt.Sprintf("%s/%s", collectionURL, boatID),
		})
		return tx.Save(&owner).Error
	})
}

func (r *boatRepository) GetByID(ctx context.Context, id uint) (*models.Boat, error) {
	var boat models.Boat
	err := r.db.WithContext(ctx).First(&boat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &boat, nil
}

func (r *boatRepository) List(ctx context.Context, owner string, limit, offset int) ([]*models.Boat, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Boat{}).
		Where("owner = ?", owner).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var boats []*models.Boat
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&boats).Error
	return boats, total, err
}

func (r *boatRepository) Update(ctx context.Context, boat *models.Boat) error {
	return r.db.WithContext(ctx).Save(boat).Error
}

func (r *boatRepository) Delete(ctx context.Context, boat *models.Boat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Every load carried by this boat goes back to having no carrier.
		for _, ref := range boat.Loads {
			loadID, err := strconv.ParseUint(ref.ID, 10, 64)
			if err != nil {
				continue
			}
			var load models.Load
			if err := tx.First(&load, uint(loadID)).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			load.Carrier = models.Carrier{}
			if err := tx.Save(&load).Error; err != nil {
				return err
			}
		}

		var owner models.User
		err := tx.Where("unique_id = ?", boat.Owner).First(&owner).Error
		if err == nil {
			owner.Boats = owner.Boats.Remove(strconv.FormatUint(uint64(boat.ID), 10))
			if err := tx.Save(&owner).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Delete(&models.Boat{}, boat.ID).Error
	})
}

func (r *boatRepository) AttachLoad(ctx context.Context, boatID, loadID uint, carrierSelf, loadSelf string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var boat models.Boat
		if err := tx.First(&boat, boatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrBoatNotFound
			}
			return err
		}
		var load models.Load
		if err := tx.First(&load, loadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrLoadNotFound
			}
			return err
		}

		// Re-checked inside the transaction: a load rides on one boat at most.
		if !load.Carrier.IsNone() {
			return models.ErrLoadHasCarrier
		}

		load.Carrier = models.Carrier{
			ID:   strconv.FormatUint(uint64(boat.ID), 10),
			Name: boat.Name,
			Self: carrierSelf,
		}
		if err := tx.Save(&load).Error; err != nil {
			return err
		}

		boat.Loads = append(boat.Loads, models.LoadRef{
			ID:   strconv.FormatUint(uint64(load.ID), 10),
			Self: loadSelf,
		})
		return tx.Save(&boat).Error
	})
}

func (r *boatRepository) DetachLoad(ctx context.Context, boatID, loadID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var boat models.Boat
		if err := tx.First(&boat, boatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrBoatNotFound
			}
			return err
		}
		var load models.Load
		if err := tx.First(&load, loadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrLoadNotFound
			}
			return err
		}

		if load.Carrier.IsNone() || load.Carrier.ID != strconv.FormatUint(uint64(boat.ID), 10) {
			return models.ErrLoadNotOnBoat
		}

		load.Carrier = models.Carrier{}
		if err := tx.Save(&load).Error; err != nil {
			return err
		}

		boat.Loads = boat.Loads.Remove(strconv.FormatUint(uint64(load.ID), 10))
		return tx.Save(&boat).Error
	})
}
