// Package application keeps the confirmed orders this storefront has placed.
package application

import (
	"context"
	"errors"
	"sync"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/repository"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptsService caches receipts in memory in front of an optional
// repository. Without a repository receipts live only as long as the process.
type ReceiptsService struct {
	repo repository.ReceiptRepo
	mu   sync.RWMutex
	byID map[int64]*domain.Receipt
}

func NewReceiptsService(r repository.ReceiptRepo) *ReceiptsService {
	return &ReceiptsService{
		repo: r,
		byID: make(map[int64]*domain.Receipt),
	}
}

// Record stores a receipt. Recording an order twice is not an error.
func (s *ReceiptsService) Record(ctx context.Context, r domain.Receipt) error {
	if s.repo != nil {
		err := s.repo.AddReceipt(ctx, r)
		if err != nil && !errors.Is(err, repository.ErrReceiptAlreadyExists) {
			logger.Warn("Error while adding receipt", "order_id", r.Order.OrderID, "err", err)
			return err
		}
	}

	s.mu.Lock()
	if _, ok := s.byID[r.Order.OrderID]; !ok {
		s.byID[r.Order.OrderID] = &r
	}
	s.mu.Unlock()
	return nil
}

func (s *ReceiptsService) GetByOrderID(ctx context.Context, id int64) (*domain.Receipt, error) {
	s.mu.RLock()
	if r, ok := s.byID[id]; ok {
		s.mu.RUnlock()
		return r, nil
	}
	s.mu.RUnlock()

	if s.repo == nil {
		return nil, ErrReceiptNotFound
	}
	r, err := s.repo.GetReceipt(ctx, id)
	if errors.Is(err, repository.ErrReceiptNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		logger.Warn("receipts service get trouble", "order_id", id, "err", err)
		return nil, err
	}

	s.mu.Lock()
	s.byID[id] = r
	s.mu.Unlock()
	return r, nil
}

// RestoreCache replaces the cache with the most recent receipts.
func (s *ReceiptsService) RestoreCache(ctx context.Context, limit int) error {
	if s.repo == nil {
		return nil
	}
	rows, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	tmp := make(map[int64]*domain.Receipt, len(rows))
	for i := range rows {
		tmp[rows[i].Order.OrderID] = &rows[i]
	}

	s.mu.Lock()
	s.byID = tmp
	s.mu.Unlock()
	logger.Info("receipt cache restored", "count", len(tmp))
	return nil
}
