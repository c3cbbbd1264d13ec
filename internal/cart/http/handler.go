package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httperr"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	svc      *app.Service
	currency string
}

func NewHandler(svc *app.Service, currency string) *Handler {
	return &Handler{svc: svc, currency: currency}
}

// Register mounts the cart routes. The session middleware must run first.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/cart")
	g.GET("", h.get)
	g.DELETE("", h.clear)
	g.GET("/count", h.count)
	g.POST("/lines", h.add)
	g.PATCH("/lines", h.setQuantity)
	g.DELETE("/lines", h.remove)
}

type lineRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	VariationID string `json:"variation_id"`
	ColorID     string `json:"color_id"`
	Quantity    int    `json:"quantity"`
}

func (r lineRequest) key() domain.LineKey {
	return domain.LineKey{ProductID: r.ProductID, VariationID: r.VariationID, ColorID: r.ColorID}
}

type cartResponse struct {
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Currency  string            `json:"currency"`
}

func (h *Handler) get(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), owner)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(cart))
}

func (h *Handler) count(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	n, err := h.svc.ItemCount(c.Request.Context(), owner)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) add(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	req, ok := bind(c)
	if !ok {
		return
	}
	cart, err := h.svc.AddLine(c.Request.Context(), owner, app.AddLineRequest{
		ProductID:   req.ProductID,
		VariationID: req.VariationID,
		ColorID:     req.ColorID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(cart))
}

func (h *Handler) setQuantity(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	req, ok := bind(c)
	if !ok {
		return
	}
	cart, err := h.svc.SetQuantity(c.Request.Context(), owner, req.key(), req.Quantity)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(cart))
}

func (h *Handler) remove(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	req, ok := bind(c)
	if !ok {
		return
	}
	cart, err := h.svc.RemoveLine(c.Request.Context(), owner, req.key())
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(cart))
}

func (h *Handler) clear(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), owner); err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) toResponse(cart domain.Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{
		Lines:     lines,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Currency:  h.currency,
	}
}

func ownerOf(c *gin.Context) (domain.Owner, bool) {
	owner, ok := session.OwnerFrom(c)
	if !ok {
		httperr.Abort(c, status.Error(codes.Unauthenticated, "no session"))
		return domain.Owner{}, false
	}
	return owner, true
}

func bind(c *gin.Context) (lineRequest, bool) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, status.Error(codes.InvalidArgument, bindMessage(err)))
		return lineRequest{}, false
	}
	return req, true
}

func bindMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field == "quantity":
		return app.ErrInvalidQuantity.Error()
	case errors.As(err, &typeErr), errors.As(err, &syntaxErr):
		return "invalid request body"
	}
	return "product_id is required"
}

func mapErr(err error) error {
	var stock *app.StockError
	switch {
	case errors.As(err, &stock):
		return status.Error(codes.FailedPrecondition, stock.Error())
	case errors.Is(err, app.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, catalogapp.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrLineNotFound),
		errors.Is(err, catalogapp.ErrNotFound),
		errors.Is(err, catalog.ErrVariationNotFound),
		errors.Is(err, catalog.ErrColorNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
