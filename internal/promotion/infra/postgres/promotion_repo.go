package postgres

import (
	"context"
	"time"

	"github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type saleRow struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID          *uuid.UUID      `gorm:"type:uuid;index"`
	IsGlobal           bool            `gorm:"not null;default:false"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	IsActive           bool            `gorm:"not null;default:true;index:idx_sales_active"`
	EndDate            time.Time       `gorm:"not null;index:idx_sales_active"`
	CreatedAt          time.Time
}

func (saleRow) TableName() string { return "sales" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&saleRow{})
}

type PromotionRepo struct {
	db *gorm.DB
}

func NewPromotionRepo(db *gorm.DB) *PromotionRepo {
	return &PromotionRepo{db: db}
}

func (r *PromotionRepo) ListActive(ctx context.Context, now time.Time, productID string) ([]domain.Promotion, error) {
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("end_date > ?", now)

	if productID != "" {
		pid, err := uuid.Parse(productID)
		if err != nil {
			q = q.Where("is_global = ?", true)
		} else {
			q = q.Where("product_id = ? OR is_global = ?", pid, true)
		}
	}

	var rows []saleRow
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Promotion, 0, len(rows))
	for _, row := range rows {
		p := domain.Promotion{
			ID:              row.ID.String(),
			IsGlobal:        row.IsGlobal,
			DiscountPercent: row.DiscountPercentage,
			IsActive:        row.IsActive,
			EndDate:         row.EndDate,
			CreatedAt:       row.CreatedAt,
		}
		if row.ProductID != nil {
			p.ProductID = row.ProductID.String()
		}
		out = append(out, p)
	}
	return out, nil
}
