// Package events fans order notifications out to the configured brokers.
package events

import (
	"context"
	"errors"

	"github.com/RaikyD/storefront-bff/internal/domain"
)

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishOrderPlaced(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
