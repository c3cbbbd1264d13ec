package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartItemRow is one persisted shopper cart line. There is no unique index
// over the identity columns; lines are matched with IS NULL on the optional
// ids and duplicates are folded on read.
type cartItemRow struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          string    `gorm:"index;not null"`
	ProductID       string    `gorm:"not null"`
	VariationID     *string
	ColorID         *string
	Quantity        int    `gorm:"not null"`
	ProductName     string `gorm:"not null"`
	ProductImage    string
	VariationName   string
	ColorName       string
	ColorCode       string
	UnitPrice       decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	FinalUnitPrice  decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	DiscountPercent decimal.NullDecimal `gorm:"type:numeric(5,2)"`
	CreatedAt       time.Time
}

func (cartItemRow) TableName() string { return "cart_items" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&cartItemRow{})
}

type CartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	var rows []cartItemRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner.ID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CartRepo) FindLine(ctx context.Context, owner domain.Owner, key domain.LineKey) (domain.CartLine, bool, error) {
	var row cartItemRow
	err := matchKey(r.db.WithContext(ctx), owner, key).
		Order("created_at ASC, id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CartLine{}, false, nil
	}
	if err != nil {
		return domain.CartLine{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *CartRepo) InsertLine(ctx context.Context, owner domain.Owner, line domain.CartLine) error {
	row, err := fromDomain(owner, line)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// IncrementLine bumps the oldest matching row. The addition happens in SQL
// so a concurrent increment is never lost.
func (r *CartRepo) IncrementLine(ctx context.Context, owner domain.Owner, key domain.LineKey, delta int) error {
	var row cartItemRow
	err := matchKey(r.db.WithContext(ctx), owner, key).
		Order("created_at ASC, id ASC").
		Select("id").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return app.ErrLineNotFound
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&cartItemRow{}).
		Where("id = ?", row.ID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *CartRepo) SetQuantity(ctx context.Context, owner domain.Owner, key domain.LineKey, quantity int) error {
	if quantity <= 0 {
		return r.DeleteLine(ctx, owner, key)
	}
	res := matchKey(r.db.WithContext(ctx).Model(&cartItemRow{}), owner, key).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return app.ErrLineNotFound
	}
	return nil
}

func (r *CartRepo) DeleteLine(ctx context.Context, owner domain.Owner, key domain.LineKey) error {
	return matchKey(r.db.WithContext(ctx), owner, key).Delete(&cartItemRow{}).Error
}

func (r *CartRepo) ReplaceLines(ctx context.Context, owner domain.Owner, lines []domain.CartLine) error {
	rows := make([]cartItemRow, 0, len(lines))
	for _, l := range lines {
		row, err := fromDomain(owner, l)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", owner.ID).Delete(&cartItemRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// FoldDuplicates locks the shopper's rows, adds each duplicate's quantity to
// the oldest row of its identity and deletes only the duplicates. Rows
// inserted after the lock was taken are not touched.
func (r *CartRepo) FoldDuplicates(ctx context.Context, owner domain.Owner) (int, error) {
	merged := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []cartItemRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", owner.ID).
			Order("created_at ASC, id ASC").
			Find(&rows).Error
		if err != nil {
			return err
		}

		kept := make(map[domain.LineKey]int, len(rows))
		extra := make(map[uuid.UUID]int)
		var drop []uuid.UUID
		for i, row := range rows {
			key := row.toDomain().Key
			j, ok := kept[key]
			if !ok {
				kept[key] = i
				continue
			}
			extra[rows[j].ID] += row.Quantity
			drop = append(drop, row.ID)
		}
		if len(drop) == 0 {
			return nil
		}

		for id, qty := range extra {
			err := tx.Model(&cartItemRow{}).
				Where("id = ?", id).
				Update("quantity", gorm.Expr("quantity + ?", qty)).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("id IN ?", drop).Delete(&cartItemRow{}).Error; err != nil {
			return err
		}
		merged = len(drop)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

func (r *CartRepo) Clear(ctx context.Context, owner domain.Owner) error {
	return r.db.WithContext(ctx).Where("user_id = ?", owner.ID).Delete(&cartItemRow{}).Error
}

// Owners lists shoppers that currently hold lines.
func (r *CartRepo) Owners(ctx context.Context) ([]domain.Owner, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&cartItemRow{}).Distinct().Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Owner, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Shopper(id))
	}
	return out, nil
}

func matchKey(db *gorm.DB, owner domain.Owner, key domain.LineKey) *gorm.DB {
	q := db.Where("user_id = ? AND product_id = ?", owner.ID, key.ProductID)
	q = matchOptional(q, "variation_id", key.VariationID)
	return matchOptional(q, "color_id", key.ColorID)
}

func matchOptional(q *gorm.DB, column, value string) *gorm.DB {
	if value == "" {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", value)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromDomain(owner domain.Owner, l domain.CartLine) (cartItemRow, error) {
	id := uuid.New()
	if l.ID != "" {
		parsed, err := uuid.Parse(l.ID)
		if err != nil {
			return cartItemRow{}, err
		}
		id = parsed
	}
	return cartItemRow{
		ID:              id,
		UserID:          owner.ID,
		ProductID:       l.Key.ProductID,
		VariationID:     optional(l.Key.VariationID),
		ColorID:         optional(l.Key.ColorID),
		Quantity:        l.Quantity,
		ProductName:     l.ProductName,
		ProductImage:    l.ProductImage,
		VariationName:   l.VariationName,
		ColorName:       l.ColorName,
		ColorCode:       l.ColorCode,
		UnitPrice:       l.UnitPrice,
		FinalUnitPrice:  l.FinalUnitPrice,
		DiscountPercent: l.DiscountPercent,
		CreatedAt:       l.AddedAt,
	}, nil
}

func (row cartItemRow) toDomain() domain.CartLine {
	return domain.CartLine{
		ID: row.ID.String(),
		Key: domain.LineKey{
			ProductID:   row.ProductID,
			VariationID: deref(row.VariationID),
			ColorID:     deref(row.ColorID),
		},
		Quantity: row.Quantity,
		Snapshot: domain.Snapshot{
			ProductName:     row.ProductName,
			ProductImage:    row.ProductImage,
			VariationName:   row.VariationName,
			ColorName:       row.ColorName,
			ColorCode:       row.ColorCode,
			UnitPrice:       row.UnitPrice,
			FinalUnitPrice:  row.FinalUnitPrice,
			DiscountPercent: row.DiscountPercent,
		},
		AddedAt: row.CreatedAt,
	}
}
