// Package analytics is the boundary towards pixel/event collectors. Event
// values are always final (discounted) unit prices.
package analytics

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	EventAddToCart   = "add_to_cart"
	EventViewContent = "view_content"
)

type Event struct {
	Name        string
	ProductID   string
	ProductName string
	Value       decimal.Decimal
	Quantity    int
	Currency    string
	Scope       string
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// LogPublisher writes events as structured log records. Collectors tail the
// log stream.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("component", "analytics")}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) {
	p.log.InfoContext(ctx, "analytics event",
		slog.String("event", ev.Name),
		slog.String("product_id", ev.ProductID),
		slog.String("product_name", ev.ProductName),
		slog.String("value", ev.Value.String()),
		slog.Int("quantity", ev.Quantity),
		slog.String("currency", ev.Currency),
		slog.String("scope", ev.Scope),
	)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
