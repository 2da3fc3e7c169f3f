package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// FilterKind selects which single filter a product listing applies.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterByName
	FilterByCategory
	FilterByAvailability
)

// ProductFilter is one listing filter. Only the field matching Kind is read.
type ProductFilter struct {
	Kind      FilterKind
	Name      string
	Category  Category
	Available bool
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// Migrate creates or updates the products table. Safe to run repeatedly.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Product{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// Create inserts a new product and assigns its ID.
func (r *ProductsRepository) Create(ctx context.Context, p *Product) error {
	if p.stale {
		return &DataValidationError{Op: "create", Err: errors.New("product has been deleted")}
	}
	if p.ID != 0 {
		return &DataValidationError{Op: "create", Err: fmt.Errorf("product already has id %d", p.ID)}
	}
	if err := p.Validate(); err != nil {
		return &DataValidationError{Op: "create", Err: err}
	}

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		p.ID = 0
		return classifyError("create", err)
	}
	return nil
}

// Update writes every field of p over the stored row with the same ID.
// A row deleted in the meantime yields ErrProductNotFound.
func (r *ProductsRepository) Update(ctx context.Context, p *Product) error {
	if p.ID == 0 {
		return &DataValidationError{Op: "update", Err: errors.New("product has no id")}
	}
	if p.stale {
		return &DataValidationError{Op: "update", Err: errors.New("product has been deleted")}
	}
	if err := p.Validate(); err != nil {
		return &DataValidationError{Op: "update", Err: err}
	}

	res := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"available":   p.Available,
			"category":    p.Category,
		})
	if res.Error != nil {
		return classifyError("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes the row for p, if any, and marks p stale.
// Deleting an absent product is not an error.
func (r *ProductsRepository) Delete(ctx context.Context, p *Product) error {
	if p.ID == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&Product{}, p.ID).Error; err != nil {
		return classifyError("delete", err)
	}
	p.stale = true
	return nil
}

// Find returns the product with the given ID or ErrProductNotFound.
func (r *ProductsRepository) Find(ctx context.Context, id uint) (*Product, error) {
	if id == 0 {
		return nil, ErrProductNotFound
	}
	var product Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, classifyError("find", err)
	}
	return &product, nil
}

func (r *ProductsRepository) All(ctx context.Context) ([]Product, error) {
	return r.findWhere(ctx, "all")
}

// FindByName matches the name exactly, case included.
func (r *ProductsRepository) FindByName(ctx context.Context, name string) ([]Product, error) {
	return r.findWhere(ctx, "find by name", "name = ?", name)
}

func (r *ProductsRepository) FindByCategory(ctx context.Context, category Category) ([]Product, error) {
	if !category.Valid() {
		return nil, &ValidationError{Field: "category", Reason: fmt.Sprintf("invalid category %d", int(category))}
	}
	return r.findWhere(ctx, "find by category", "category = ?", category)
}

func (r *ProductsRepository) FindByAvailability(ctx context.Context, available bool) ([]Product, error) {
	return r.findWhere(ctx, "find by availability", "available = ?", available)
}

// List applies exactly one filter, or none.
func (r *ProductsRepository) List(ctx context.Context, f ProductFilter) ([]Product, error) {
	switch f.Kind {
	case FilterByName:
		return r.FindByName(ctx, f.Name)
	case FilterByCategory:
		return r.FindByCategory(ctx, f.Category)
	case FilterByAvailability:
		return r.FindByAvailability(ctx, f.Available)
	case FilterNone:
		return r.All(ctx)
	default:
		return nil, fmt.Errorf("unknown product filter kind %d", f.Kind)
	}
}

// Reset deletes every product and inserts seed, all in one transaction.
func (r *ProductsRepository) Reset(ctx context.Context, seed []*Product) error {
	for _, p := range seed {
		if p.ID != 0 {
			return &DataValidationError{Op: "seed", Err: fmt.Errorf("product already has id %d", p.ID)}
		}
		if err := p.Validate(); err != nil {
			return &DataValidationError{Op: "seed", Err: err}
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Product{}).Error; err != nil {
			return err
		}
		if len(seed) == 0 {
			return nil
		}
		return tx.Create(seed).Error
	})
	if err != nil {
		for _, p := range seed {
			p.ID = 0
		}
		return classifyError("reset", err)
	}
	return nil
}

func (r *ProductsRepository) findWhere(ctx context.Context, op string, conds ...any) ([]Product, error) {
	products := []Product{}
	query := r.db.WithContext(ctx).Order("id")
	if len(conds) > 0 {
		query = query.Where(conds[0], conds[1:]...)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, classifyError(op, err)
	}
	return products, nil
}

func classifyError(op string, err error) error {
	if isConstraintViolation(err) {
		return &DataValidationError{Op: op, Err: err}
	}
	return &StoreError{Op: op, Err: err}
}

// isConstraintViolation recognises SQLSTATE class 23 from either postgres driver.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated)
}
