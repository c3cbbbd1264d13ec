package http

import (
	"errors"
	"net/http"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	cart "github.com/dwikikusuma/storefront/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/checkout/app"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httperr"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/checkout/quote", h.quote)
}

func (h *Handler) quote(c *gin.Context) {
	owner, ok := session.OwnerFrom(c)
	if !ok {
		httperr.Abort(c, status.Error(codes.Unauthenticated, "no session"))
		return
	}
	q, err := h.svc.Quote(c.Request.Context(), string(owner.Scope), owner.ID)
	if err != nil {
		httperr.Abort(c, mapErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": q, "stale": q.HasStale()})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrEmptyCart):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, cart.ErrInvalidOwner):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, catalogapp.ErrNotFound),
		errors.Is(err, catalog.ErrVariationNotFound),
		errors.Is(err, catalog.ErrColorNotFound):
		return status.Error(codes.FailedPrecondition, "a cart item is no longer available")
	case errors.Is(err, cartapp.ErrNoStore):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
