// Package seed loads catalog and promotion fixtures from YAML into the
// in-memory repositories used when no database is configured.
package seed

import (
	"fmt"
	"os"
	"time"

	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type File struct {
	Categories []categoryDoc  `yaml:"categories"`
	Products   []productDoc   `yaml:"products"`
	Promotions []promotionDoc `yaml:"promotions"`
}

type categoryDoc struct {
	ID   string `yaml:"id"`
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type productDoc struct {
	ID          string         `yaml:"id"`
	Slug        string         `yaml:"slug"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Price       string         `yaml:"price"`
	Images      []string       `yaml:"images"`
	Stock       int            `yaml:"stock"`
	Featured    bool           `yaml:"featured"`
	CreatedAt   time.Time      `yaml:"created_at"`
	Variations  []variationDoc `yaml:"variations"`
	Colors      []colorDoc     `yaml:"colors"`
}

type variationDoc struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	Stock     int    `yaml:"stock"`
	ApplySale *bool  `yaml:"apply_sale"`
}

type colorDoc struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Code      string `yaml:"code"`
	Price     string `yaml:"price"`
	Stock     int    `yaml:"stock"`
	ApplySale *bool  `yaml:"apply_sale"`
}

type promotionDoc struct {
	ID        string     `yaml:"id"`
	ProductID string     `yaml:"product_id"`
	Global    bool       `yaml:"global"`
	Percent   string     `yaml:"discount_percent"`
	Active    *bool      `yaml:"active"`
	EndDate   *time.Time `yaml:"end_date"`
	// EndsIn is relative to load time, for demo data that must not expire.
	EndsIn    string    `yaml:"ends_in"`
	CreatedAt time.Time `yaml:"created_at"`
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// CatalogProducts converts the fixture products. Sort order follows the
// order entries appear in the file.
func (f File) CatalogProducts() ([]catalog.Product, error) {
	cats := make(map[string]*catalog.Category, len(f.Categories))
	for _, c := range f.Categories {
		cat := catalog.Category{ID: c.ID, Slug: c.Slug, Name: c.Name}
		cats[c.Slug] = &cat
	}

	out := make([]catalog.Product, 0, len(f.Products))
	for _, d := range f.Products {
		price, err := amount(d.Price, false)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", d.ID, err)
		}
		p := catalog.Product{
			ID:            d.ID,
			Slug:          d.Slug,
			Name:          d.Name,
			Description:   d.Description,
			Price:         price,
			Images:        d.Images,
			StockQuantity: d.Stock,
			IsFeatured:    d.Featured,
			CreatedAt:     d.CreatedAt,
			UpdatedAt:     d.CreatedAt,
		}
		if d.Category != "" {
			cat, ok := cats[d.Category]
			if !ok {
				return nil, fmt.Errorf("product %s: unknown category %q", d.ID, d.Category)
			}
			p.Category = cat
		}
		for i, v := range d.Variations {
			vp, err := amount(v.Price, false)
			if err != nil {
				return nil, fmt.Errorf("variation %s: %w", v.ID, err)
			}
			p.Variations = append(p.Variations, catalog.Variation{
				ID: v.ID, ProductID: d.ID, Name: v.Name, Price: vp,
				StockQuantity: v.Stock, ApplySale: boolOr(v.ApplySale, true), SortOrder: i,
			})
		}
		for i, c := range d.Colors {
			cp, err := amount(c.Price, true)
			if err != nil {
				return nil, fmt.Errorf("color %s: %w", c.ID, err)
			}
			p.Colors = append(p.Colors, catalog.Color{
				ID: c.ID, ProductID: d.ID, Name: c.Name, ColorCode: c.Code, Price: cp,
				StockQuantity: c.Stock, ApplySale: boolOr(c.ApplySale, true), SortOrder: i,
			})
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f File) CatalogPromotions(now time.Time) ([]promotion.Promotion, error) {
	out := make([]promotion.Promotion, 0, len(f.Promotions))
	for _, d := range f.Promotions {
		pct, err := amount(d.Percent, false)
		if err != nil {
			return nil, fmt.Errorf("promotion %s: %w", d.ID, err)
		}
		var end time.Time
		switch {
		case d.EndDate != nil:
			end = *d.EndDate
		case d.EndsIn != "":
			dur, err := time.ParseDuration(d.EndsIn)
			if err != nil {
				return nil, fmt.Errorf("promotion %s: ends_in: %w", d.ID, err)
			}
			end = now.Add(dur)
		default:
			return nil, fmt.Errorf("promotion %s: end_date or ends_in is required", d.ID)
		}
		created := d.CreatedAt
		if created.IsZero() {
			created = now
		}
		out = append(out, promotion.Promotion{
			ID:              d.ID,
			ProductID:       d.ProductID,
			IsGlobal:        d.Global,
			DiscountPercent: pct,
			IsActive:        boolOr(d.Active, true),
			EndDate:         end,
			CreatedAt:       created,
		})
	}
	return out, nil
}

// amount parses a decimal string. Empty is zero only when optional.
func amount(s string, optional bool) (decimal.Decimal, error) {
	if s == "" {
		if optional {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	return decimal.NewFromString(s)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
