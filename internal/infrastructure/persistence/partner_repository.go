package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pasarlink/backend/internal/domain/partner"
)

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var c partner.Customer
	if err := dbFrom(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var s partner.Supplier
	if err := dbFrom(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindByIDs batch-resolves suppliers; missing ids are absent from the result
func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var suppliers []*partner.Supplier
	if err := dbFrom(ctx, r.db).Where("id IN ?", ids).Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// GormAddressRepository implements partner.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByID finds an address by ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Address, error) {
	var a partner.Address
	if err := dbFrom(ctx, r.db).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDs batch-resolves addresses; missing ids are absent from the result
func (r *GormAddressRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*partner.Address, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var addresses []*partner.Address
	if err := dbFrom(ctx, r.db).Where("id IN ?", ids).Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// FindDefaultForOwner finds the owner's default address
func (r *GormAddressRepository) FindDefaultForOwner(ctx context.Context, ownerType partner.AddressOwnerType, ownerID uuid.UUID) (*partner.Address, error) {
	var a partner.Address
	if err := dbFrom(ctx, r.db).
		First(&a, "owner_type = ? AND owner_id = ? AND is_default = ?", ownerType, ownerID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GormSupplierAccessRepository implements partner.SupplierAccessRepository using GORM
type GormSupplierAccessRepository struct {
	db *gorm.DB
}

// NewGormSupplierAccessRepository creates a new GormSupplierAccessRepository
func NewGormSupplierAccessRepository(db *gorm.DB) *GormSupplierAccessRepository {
	return &GormSupplierAccessRepository{db: db}
}

// FindByViewer returns the access edges granted to the viewer
func (r *GormSupplierAccessRepository) FindByViewer(ctx context.Context, viewerID uuid.UUID) ([]*partner.SupplierAccess, error) {
	var edges []*partner.SupplierAccess
	if err := dbFrom(ctx, r.db).
		Where("viewer_id = ?", viewerID).
		Order("created_at ASC").
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// FindBetween returns the access edge between two suppliers, if any
func (r *GormSupplierAccessRepository) FindBetween(ctx context.Context, viewerID, targetID uuid.UUID) (*partner.SupplierAccess, error) {
	var edge partner.SupplierAccess
	if err := dbFrom(ctx, r.db).
		First(&edge, "viewer_id = ? AND target_id = ?", viewerID, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}
