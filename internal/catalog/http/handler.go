package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dwikikusuma/storefront/internal/analytics"
	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	pricingapp "github.com/dwikikusuma/storefront/internal/pricing/app"
	pricing "github.com/dwikikusuma/storefront/internal/pricing/domain"
	promoapp "github.com/dwikikusuma/storefront/internal/promotion/app"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/dwikikusuma/storefront/pkg/httperr"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Catalog interface {
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	ListProducts(ctx context.Context, filter app.ListFilter) ([]domain.Product, error)
}

type Pricer interface {
	Resolve(ctx context.Context, sel domain.Selection) (pricing.Resolution, error)
	ResolveWith(sel domain.Selection, set promotion.ActiveSet) (pricing.Resolution, error)
}

type Promotions interface {
	Snapshot(ctx context.Context) (promoapp.Snapshot, error)
}

type Handler struct {
	catalog  Catalog
	prices   Pricer
	promos   Promotions
	events   analytics.Publisher
	currency string
}

func NewHandler(catalog Catalog, prices Pricer, promos Promotions, events analytics.Publisher, currency string) *Handler {
	if events == nil {
		events = analytics.Discard{}
	}
	return &Handler{catalog: catalog, prices: prices, promos: promos, events: events, currency: currency}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/products", h.list)
	r.GET("/products/:slug", h.get)
	r.GET("/products/:slug/price", h.price)
}

type cardResponse struct {
	ID       string             `json:"id"`
	Slug     string             `json:"slug"`
	Name     string             `json:"name"`
	Image    string             `json:"image,omitempty"`
	Category string             `json:"category,omitempty"`
	Featured bool               `json:"featured"`
	Price    pricing.Resolution `json:"price"`
}

type variationResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ApplySale bool            `json:"apply_sale"`
}

type colorResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ApplySale bool            `json:"apply_sale"`
}

type productResponse struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Images      []string            `json:"images"`
	Price       decimal.Decimal     `json:"price"`
	Stock       int                 `json:"stock"`
	Variations  []variationResponse `json:"variations"`
	Colors      []colorResponse     `json:"colors"`
	Selected    selectedResponse    `json:"selected"`
	Currency    string              `json:"currency"`
}

type selectedResponse struct {
	VariationID string             `json:"variation_id,omitempty"`
	ColorID     string             `json:"color_id,omitempty"`
	Stock       int                `json:"stock"`
	Price       pricing.Resolution `json:"price"`
}

type priceResponse struct {
	pricing.Resolution
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	Currency  string          `json:"currency"`
}

func (h *Handler) list(c *gin.Context) {
	filter := app.ListFilter{CategorySlug: c.Query("category")}
	var err error
	if filter.MinPrice, err = optionalDecimal(c.Query("min_price")); err != nil {
		httperr.Abort(c, status.Error(codes.InvalidArgument, "min_price must be a number"))
		return
	}
	if filter.MaxPrice, err = optionalDecimal(c.Query("max_price")); err != nil {
		httperr.Abort(c, status.Error(codes.InvalidArgument, "max_price must be a number"))
		return
	}
	if raw := c.Query("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			httperr.Abort(c, status.Error(codes.InvalidArgument, "limit must be an integer"))
			return
		}
	}

	ctx := c.Request.Context()
	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	snap, err := h.promos.Snapshot(ctx)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}

	cards := make([]cardResponse, 0, len(products))
	for _, p := range products {
		res, err := h.prices.ResolveWith(domain.Selection{Product: p}, snap.For(p.ID))
		if err != nil {
			httperr.Abort(c, mapErr(err))
			return
		}
		card := cardResponse{
			ID: p.ID, Slug: p.Slug, Name: p.Name, Image: p.PrimaryImage(),
			Featured: p.IsFeatured, Price: res,
		}
		if p.Category != nil {
			card.Category = p.Category.Slug
		}
		cards = append(cards, card)
	}
	c.JSON(http.StatusOK, gin.H{"products": cards, "currency": h.currency})
}

func (h *Handler) get(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.catalog.GetProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}

	sel := p.DefaultSelection()
	if vid, cid := c.Query("variation_id"), c.Query("color_id"); vid != "" || cid != "" {
		if sel, err = p.Select(vid, cid); err != nil {
			httperr.Abort(c, mapErr(err))
			return
		}
	}
	res, err := h.prices.Resolve(ctx, sel)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}

	h.events.Publish(ctx, analytics.Event{
		Name:        analytics.EventViewContent,
		ProductID:   p.ID,
		ProductName: p.Name,
		Value:       res.FinalUnitPrice,
		Quantity:    1,
		Currency:    h.currency,
	})

	c.JSON(http.StatusOK, toProductResponse(p, sel, res, h.currency))
}

func (h *Handler) price(c *gin.Context) {
	ctx := c.Request.Context()
	quantity := 1
	if raw := c.Query("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			httperr.Abort(c, status.Error(codes.InvalidArgument, "quantity must be at least 1"))
			return
		}
		quantity = q
	}

	p, err := h.catalog.GetProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	sel, err := p.Select(c.Query("variation_id"), c.Query("color_id"))
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	res, err := h.prices.Resolve(ctx, sel)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}

	c.JSON(http.StatusOK, priceResponse{
		Resolution: res,
		Quantity:   quantity,
		LineTotal:  res.LineTotal(quantity),
		Stock:      sel.Stock(),
		Currency:   h.currency,
	})
}

func toProductResponse(p domain.Product, sel domain.Selection, res pricing.Resolution, currency string) productResponse {
	out := productResponse{
		ID: p.ID, Slug: p.Slug, Name: p.Name, Description: p.Description,
		Images: p.Images, Price: p.Price, Stock: p.StockQuantity, Currency: currency,
		Variations: make([]variationResponse, 0, len(p.Variations)),
		Colors:     make([]colorResponse, 0, len(p.Colors)),
		Selected: selectedResponse{
			VariationID: sel.VariationID(),
			ColorID:     sel.ColorID(),
			Stock:       sel.Stock(),
			Price:       res,
		},
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if p.Category != nil {
		out.Category = p.Category.Slug
	}
	for _, v := range p.Variations {
		out.Variations = append(out.Variations, variationResponse{
			ID: v.ID, Name: v.Name, Price: v.Price, Stock: v.StockQuantity, ApplySale: v.ApplySale,
		})
	}
	for _, col := range p.Colors {
		out.Colors = append(out.Colors, colorResponse{
			ID: col.ID, Name: col.Name, Code: col.ColorCode, Price: col.Price,
			Stock: col.StockQuantity, ApplySale: col.ApplySale,
		})
	}
	return out
}

func optionalDecimal(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func mapErr(err error) error {
	if errors.Is(err, app.ErrInvalidInput) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, app.ErrNotFound) || errors.Is(err, domain.ErrVariationNotFound) || errors.Is(err, domain.ErrColorNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

var _ Pricer = (*pricingapp.Service)(nil)
