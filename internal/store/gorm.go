package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pizzafactory/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

// New wraps a gorm connection in the Store interface.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateVendor(ctx context.Context, v *models.Vendor) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *gormStore) VendorByAPIKey(ctx context.Context, apiKey string) (*models.Vendor, error) {
	return s.vendorWhere(ctx, "api_key = ?", apiKey)
}

func (s *gormStore) VendorByID(ctx context.Context, id string) (*models.Vendor, error) {
	return s.vendorWhere(ctx, "id = ?", id)
}

func (s *gormStore) vendorWhere(ctx context.Context, query string, arg any) (*models.Vendor, error) {
	var v models.Vendor
	err := s.db.WithContext(ctx).Preload("Roles").Preload("Chaos").First(&v, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *gormStore) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	v.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
}

func (s *gormStore) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var vs []models.Vendor
	err := s.db.WithContext(ctx).Preload("Roles").Preload("Chaos").Order("created_at").Find(&vs).Error
	return vs, err
}

func (s *gormStore) DeleteVendor(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vendor
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&v).Association("Roles").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&models.AuthCode{}, "vendor_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Chaos{}, "vendor_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Connection{}, "vendor1 = ? OR vendor2 = ?", id, id).Error; err != nil {
			return err
		}
		return tx.Delete(&v).Error
	})
}

func (s *gormStore) AssignRole(ctx context.Context, vendorID, role string, add bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vendor
		if err := tx.First(&v, "id = ?", vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var r models.Role
		if err := tx.Where(models.Role{Name: role}).FirstOrCreate(&r).Error; err != nil {
			return err
		}
		if add {
			return tx.Model(&v).Association("Roles").Append(&r)
		}
		return tx.Model(&v).Association("Roles").Delete(&r)
	})
}

func (s *gormStore) PutAuthCode(ctx context.Context, vendorID, codeHash string) error {
	code := models.AuthCode{VendorID: vendorID, CodeHash: codeHash, CreatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "created_at"}),
	}).Create(&code).Error
}

func (s *gormStore) AuthCodeHash(ctx context.Context, vendorID string) (string, error) {
	var code models.AuthCode
	err := s.db.WithContext(ctx).First(&code, "vendor_id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return code.CodeHash, nil
}

func (s *gormStore) DeleteAuthCode(ctx context.Context, vendorID string) error {
	return s.db.WithContext(ctx).Delete(&models.AuthCode{}, "vendor_id = ?", vendorID).Error
}

func (s *gormStore) SetChaos(ctx context.Context, c *models.Chaos) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "fix_code", "initiated_at", "fixed_at"}),
	}).Create(c).Error
}

func (s *gormStore) ClearChaos(ctx context.Context, vendorID, fixCode string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Chaos
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "vendor_id = ?", vendorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoChaos
		}
		if err != nil {
			return err
		}
		if c.Type == models.ChaosNone || c.FixCode == nil {
			return ErrNoChaos
		}
		if *c.FixCode != fixCode {
			return ErrCodeMismatch
		}
		now := time.Now()
		return tx.Model(&c).Updates(map[string]any{
			"type":     models.ChaosNone,
			"fix_code": nil,
			"fixed_at": now,
		}).Error
	})
}

func (s *gormStore) RequestConnection(ctx context.Context, vendorID, purpose string) (*ConnectionView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize search-then-link per purpose. Row locks alone cannot
		// conflict with a concurrent first-time insert under read committed,
		// which would leave two unlinked waiting rows.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", purpose).Error; err != nil {
			return err
		}
		var mine models.Connection
		err := tx.First(&mine, "vendor1 = ? AND purpose = ?", vendorID, purpose).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			mine = models.Connection{Vendor1: vendorID, Purpose: purpose, CreatedAt: time.Now()}
			if err := tx.Create(&mine).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}
		if mine.Vendor2 != nil {
			return nil
		}

		var open models.Connection
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("vendor1 <> ? AND vendor2 IS NULL AND purpose = ?", vendorID, purpose).
			Order("created_at").
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // still waiting
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Connection{}).
			Where("vendor1 = ? AND purpose = ?", open.Vendor1, purpose).
			Update("vendor2", vendorID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Connection{}).
			Where("vendor1 = ? AND purpose = ?", vendorID, purpose).
			Update("vendor2", open.Vendor1).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ConnectionFor(ctx, vendorID, purpose)
}

func (s *gormStore) ConnectionFor(ctx context.Context, vendorID, purpose string) (*ConnectionView, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).First(&conn, "vendor1 = ? AND purpose = ?", vendorID, purpose).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, &conn)
}

func (s *gormStore) Connections(ctx context.Context, vendorID string) (map[string]ConnectionView, error) {
	var conns []models.Connection
	if err := s.db.WithContext(ctx).Find(&conns, "vendor1 = ?", vendorID).Error; err != nil {
		return nil, err
	}
	out := make(map[string]ConnectionView, len(conns))
	for i := range conns {
		v, err := s.view(ctx, &conns[i])
		if err != nil {
			return nil, err
		}
		out[conns[i].Purpose] = *v
	}
	return out, nil
}

func (s *gormStore) view(ctx context.Context, conn *models.Connection) (*ConnectionView, error) {
	v := ConnectionView{Purpose: conn.Purpose, Rating: conn.Rating}
	if conn.Vendor2 != nil {
		var partner models.Vendor
		err := s.db.WithContext(ctx).First(&partner, "id = ?", *conn.Vendor2).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			v.Partner = &PartnerView{
				ID:      partner.ID,
				Name:    partner.Name,
				Phone:   partner.Phone,
				Email:   partner.Email,
				Website: partner.Website,
			}
		}
	}
	return &v, nil
}

func (s *gormStore) RateConnection(ctx context.Context, vendorID, purpose string, rating int) error {
	res := s.db.WithContext(ctx).Model(&models.Connection{}).
		Where("vendor1 = ? AND purpose = ? AND vendor2 IS NOT NULL", vendorID, purpose).
		Update("rating", rating)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPaired
	}
	return nil
}
