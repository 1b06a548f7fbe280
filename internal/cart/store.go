// Package cart owns the shopper's cart lines and their persisted snapshot.
//
// Mutations never return errors. Limit violations are reported through the
// notifier and leave the cart untouched; persistence failures are logged and
// reported through the status hook.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/notify"
	"github.com/RaikyD/storefront-bff/internal/storage"
)

type LoadStatus string

const (
	// LoadRestored: a stored snapshot was read back.
	LoadRestored LoadStatus = "restored"
	// LoadEmpty: nothing was stored under the key.
	LoadEmpty LoadStatus = "empty"
	// LoadDegraded: the snapshot was unreadable and the cart started empty.
	LoadDegraded LoadStatus = "degraded"
)

const (
	OpLoad    = "load"
	OpPersist = "persist"
)

type StatusEvent struct {
	Op     string
	Key    string
	Status LoadStatus
	Err    error
}

type Option func(*Store)

// WithStatusHook observes load decisions and persistence failures.
func WithStatusHook(hook func(StatusEvent)) Option {
	return func(s *Store) { s.hook = hook }
}

type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	key      string
	notifier notify.Notifier
	hook     func(StatusEvent)

	lines      []domain.CartLine
	loadStatus LoadStatus
}

// NewStore reads the snapshot under key once. Any failure yields an empty cart.
func NewStore(ctx context.Context, st storage.Storage, key string, notifier notify.Notifier, opts ...Option) *Store {
	s := &Store{
		storage:  st,
		key:      key,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	raw, err := s.storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.loadStatus = LoadEmpty
		s.report(StatusEvent{Op: OpLoad, Key: s.key, Status: LoadEmpty})
		return
	case err != nil:
		s.degrade(fmt.Errorf("read cart: %w", err))
		return
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		s.degrade(fmt.Errorf("decode cart: %w", err))
		return
	}
	if err := checkSnapshot(lines); err != nil {
		s.degrade(err)
		return
	}

	s.lines = lines
	s.loadStatus = LoadRestored
	s.report(StatusEvent{Op: OpLoad, Key: s.key, Status: LoadRestored})
}

func (s *Store) degrade(err error) {
	logger.Warn("cart snapshot unusable, starting empty", "key", s.key, "err", err)
	s.lines = nil
	s.loadStatus = LoadDegraded
	s.report(StatusEvent{Op: OpLoad, Key: s.key, Status: LoadDegraded, Err: err})
}

func checkSnapshot(lines []domain.CartLine) error {
	seen := make(map[int64]struct{}, len(lines))
	total := 0
	for _, l := range lines {
		if _, dup := seen[l.ItemID]; dup {
			return fmt.Errorf("duplicate item %d in snapshot", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
		if l.Quantity < 1 || l.Quantity > MaxQuantityPerItem {
			return fmt.Errorf("item %d has quantity %d", l.ItemID, l.Quantity)
		}
		if l.UnitPriceCents < 0 {
			return fmt.Errorf("item %d has negative price", l.ItemID)
		}
		total += l.Quantity
	}
	if total > MaxTotalCartItems {
		return fmt.Errorf("snapshot holds %d items", total)
	}
	return nil
}

func (s *Store) LoadStatus() LoadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStatus
}

// Add puts quantity more of an item in the cart. An existing line keeps the
// title and price captured on its first add. Returns false if rejected.
func (s *Store) Add(ctx context.Context, itemID int64, quantity int, title string, unitPriceCents int64) bool {
	if quantity < 1 {
		s.notifier.Show(invalidQuantityMessage, notify.SeverityError, "")
		return false
	}
	if unitPriceCents < 0 {
		s.notifier.Show(invalidPriceMessage, notify.SeverityError, "")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(itemID)
	current := 0
	if idx >= 0 {
		current = s.lines[idx].Quantity
		title = s.lines[idx].Title
	}
	// bound quantity first so current+quantity cannot overflow
	if quantity > MaxQuantityPerItem-current {
		s.notifier.Show(perItemLimitMessage(title), notify.SeverityWarning, contactLink)
		return false
	}
	proposed := current + quantity

	if !s.admit(proposed, s.totalLocked()-current, title) {
		return false
	}

	if idx >= 0 {
		s.lines[idx].Quantity = proposed
	} else {
		s.lines = append(s.lines, domain.CartLine{
			ItemID:         itemID,
			Quantity:       proposed,
			Title:          title,
			UnitPriceCents: unitPriceCents,
		})
	}
	s.persistLocked(ctx)
	return true
}

// Remove deletes the line for itemID. Absent items are a no-op.
func (s *Store) Remove(ctx context.Context, itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, itemID)
}

// UpdateQuantity sets a line's quantity; zero or less removes it. Absent items
// are a no-op. Returns false if the new quantity was rejected.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, itemID)
		return true
	}

	idx := s.indexOf(itemID)
	if idx < 0 {
		return false
	}
	line := s.lines[idx]
	if line.Quantity == quantity {
		return true
	}
	if !s.admit(quantity, s.totalLocked()-line.Quantity, line.Title) {
		return false
	}

	s.lines[idx].Quantity = quantity
	s.persistLocked(ctx)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.persistLocked(ctx)
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) SubtotalCents() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, l := range s.lines {
		sum += l.LineTotalCents()
	}
	return sum
}

func (s *Store) admit(proposed, totalExcludingLine int, title string) bool {
	perItem, total := withinLimits(proposed, totalExcludingLine)
	if !perItem {
		s.notifier.Show(perItemLimitMessage(title), notify.SeverityWarning, contactLink)
		return false
	}
	if !total {
		s.notifier.Show(cartLimitMessage(), notify.SeverityWarning, contactLink)
		return false
	}
	return true
}

func (s *Store) removeLocked(ctx context.Context, itemID int64) {
	idx := s.indexOf(itemID)
	if idx < 0 {
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.persistLocked(ctx)
}

func (s *Store) indexOf(itemID int64) int {
	for i, l := range s.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) totalLocked() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) persistLocked(ctx context.Context) {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	payload, err := json.Marshal(lines)
	if err == nil {
		err = s.storage.Set(ctx, s.key, payload)
	}
	if err != nil {
		logger.Warn("cart persist failed", "key", s.key, "err", err)
		s.report(StatusEvent{Op: OpPersist, Key: s.key, Err: err})
	}
}

func (s *Store) report(ev StatusEvent) {
	if s.hook != nil {
		s.hook(ev)
	}
}
