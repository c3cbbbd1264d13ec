package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type categoryRow struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug string    `gorm:"uniqueIndex;not null"`
	Name string    `gorm:"not null"`
}

func (categoryRow) TableName() string { return "categories" }

type productRow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug          string    `gorm:"uniqueIndex;not null"`
	Name          string    `gorm:"not null"`
	Description   string
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	Category      *categoryRow    `gorm:"foreignKey:CategoryID"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;index"`
	Images        []string        `gorm:"serializer:json;type:jsonb"`
	StockQuantity int             `gorm:"not null;default:0"`
	IsFeatured    bool            `gorm:"not null;default:false"`
	Variations    []variationRow  `gorm:"foreignKey:ProductID"`
	Colors        []colorRow      `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time
}

func (productRow) TableName() string { return "products" }

type variationRow struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name      string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity  int             `gorm:"not null;default:0"`
	ApplySale bool            `gorm:"not null;default:true"`
	SortOrder int             `gorm:"not null;default:0"`
}

func (variationRow) TableName() string { return "product_variations" }

type colorRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	ColorCode string
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Quantity  int              `gorm:"not null;default:0"`
	ApplySale bool             `gorm:"not null;default:true"`
	SortOrder int              `gorm:"not null;default:0"`
}

func (colorRow) TableName() string { return "product_colors" }

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&categoryRow{}, &productRow{}, &variationRow{}, &colorRow{})
}

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") })
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	prodID, err := uuid.Parse(id)
	if err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}

	var row productRow
	err = r.withChildren(ctx).First(&row, "products.id = ?", prodID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return toDomain(row), nil
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	var row productRow
	err := r.withChildren(ctx).First(&row, "products.slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return toDomain(row), nil
}

func (r *ProductRepo) List(ctx context.Context, filter app.ListFilter) ([]domain.Product, error) {
	q := r.withChildren(ctx).Model(&productRow{})
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.MinPrice.Valid {
		q = q.Where("products.price >= ?", filter.MinPrice.Decimal)
	}
	if filter.MaxPrice.Valid {
		q = q.Where("products.price <= ?", filter.MaxPrice.Decimal)
	}

	var rows []productRow
	err := q.Order("products.created_at DESC").Limit(filter.Limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out, nil
}

func toDomain(row productRow) domain.Product {
	p := domain.Product{
		ID:            row.ID.String(),
		Slug:          row.Slug,
		Name:          row.Name,
		Description:   row.Description,
		Price:         row.Price,
		Images:        row.Images,
		StockQuantity: row.StockQuantity,
		IsFeatured:    row.IsFeatured,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.Category != nil {
		p.Category = &domain.Category{ID: row.Category.ID.String(), Slug: row.Category.Slug, Name: row.Category.Name}
	}

	p.Variations = make([]domain.Variation, 0, len(row.Variations))
	for _, v := range row.Variations {
		p.Variations = append(p.Variations, domain.Variation{
			ID:            v.ID.String(),
			ProductID:     v.ProductID.String(),
			Name:          v.Name,
			Price:         v.Price,
			StockQuantity: v.Quantity,
			ApplySale:     v.ApplySale,
			SortOrder:     v.SortOrder,
		})
	}

	p.Colors = make([]domain.Color, 0, len(row.Colors))
	for _, c := range row.Colors {
		color := domain.Color{
			ID:            c.ID.String(),
			ProductID:     c.ProductID.String(),
			Name:          c.Name,
			ColorCode:     c.ColorCode,
			StockQuantity: c.Quantity,
			ApplySale:     c.ApplySale,
			SortOrder:     c.SortOrder,
		}
		if c.Price != nil {
			color.Price = *c.Price
		}
		p.Colors = append(p.Colors, color)
	}
	return p
}
