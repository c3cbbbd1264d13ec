package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/storefront/internal/bootstrap"
	carthttp "github.com/dwikikusuma/storefront/internal/cart/http"
	cataloghttp "github.com/dwikikusuma/storefront/internal/catalog/http"
	checkouthttp "github.com/dwikikusuma/storefront/internal/checkout/http"
	"github.com/dwikikusuma/storefront/internal/middleware"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func newRouter(deps *bootstrap.Deps, currency string, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.CORS(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	cataloghttp.NewHandler(deps.Catalog, deps.Pricing, deps.Promotions, deps.Events, currency).Register(api)

	shop := api.Group("", session.Middleware(deps.Tokens))
	carthttp.NewHandler(deps.Carts, currency).Register(shop)
	checkouthttp.NewHandler(deps.Checkout).Register(shop)

	return r
}
