// Package session gives every shopper their own cart, notification channel
// and checkout, keyed by a uuid held in a cookie.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RaikyD/storefront-bff/internal/cart"
	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/events"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/notify"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/RaikyD/storefront-bff/internal/storage"
	"github.com/google/uuid"
)

const (
	DefaultIdleTTL = 2 * time.Hour

	msgCartNotRestored = "We couldn't restore your saved cart."
)

var ErrNoCardElement = errors.New("no card element is attached")

// cardFiller is implemented by widgets that accept card input server side.
type cardFiller interface {
	SetCard(card payment.CardInput)
}

type Session struct {
	ID       string
	Cart     *cart.Store
	Notices  *notify.Channel
	Checkout *checkout.Orchestrator

	mu       sync.Mutex
	widget   payment.Widget
	lastSeen time.Time
}

// SetCard types card details into the widget of the current payment step.
func (s *Session) SetCard(card payment.CardInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.widget.(cardFiller)
	if !ok {
		return ErrNoCardElement
	}
	f.SetCard(card)
	return nil
}

func (s *Session) setWidget(w payment.Widget) {
	s.mu.Lock()
	s.widget = w
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	Storage     storage.Storage
	Gateway     checkout.Gateway
	Credentials payment.Credentials
	Pricing     checkout.Pricing
	Receipts    checkout.ReceiptRecorder
	Events      events.Publisher
}

type Option func(*Manager)

func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.idleTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithWidgetFactory replaces the sandbox card widget.
func WithWidgetFactory(f func() payment.Widget) Option {
	return func(m *Manager) { m.newWidget = f }
}

type Manager struct {
	cfg       Config
	idleTTL   time.Duration
	now       func() time.Time
	newWidget func() payment.Widget

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		idleTTL:   DefaultIdleTTL,
		now:       time.Now,
		newWidget: func() payment.Widget { return payment.NewSandboxWidget() },
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the session for id, creating it when id is unknown. An id that
// is not a uuid is replaced by a fresh one; callers must use the returned ID.
// A known-format but unknown id reloads that shopper's persisted cart.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
		return s
	}

	// build reads the stored cart, so it runs outside the lock
	built := m.build(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[id]; ok {
		s.touch(m.now())
		return s
	}
	m.sessions[id] = built
	return built
}

func (m *Manager) build(ctx context.Context, id string) *Session {
	s := &Session{ID: id, Notices: notify.NewChannel(), lastSeen: m.now()}
	key := cart.StorageKey + ":" + id
	s.Cart = cart.NewStore(ctx, m.cfg.Storage, key, s.Notices, cart.WithStatusHook(func(ev cart.StatusEvent) {
		if ev.Op == cart.OpLoad && ev.Status == cart.LoadDegraded {
			s.Notices.Show(msgCartNotRestored, notify.SeverityWarning, "")
		}
	}))
	s.Checkout = checkout.New(checkout.Deps{
		Cart:    s.Cart,
		Gateway: m.cfg.Gateway,
		NewTokenSource: func() checkout.TokenSource {
			w := m.newWidget()
			s.setWidget(w)
			return payment.NewAdapter(w)
		},
		Credentials: m.cfg.Credentials,
		Notifier:    s.Notices,
		ShopperID:   id,
		Pricing:     m.cfg.Pricing,
		Receipts:    m.cfg.Receipts,
		Events:      m.cfg.Events,
	})
	logger.Debug("session created", "session", id)
	return s
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the idle ttl. Their carts stay in
// storage. A session whose checkout cannot be abandoned, because a payment is
// in flight, is kept.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, s := range m.sessions {
		if s.idleSince().After(cutoff) {
			continue
		}
		if err := s.Checkout.Abandon(); err != nil {
			logger.Debug("idle session kept", "session", s.ID, "err", err)
			continue
		}
		delete(m.sessions, id)
		dropped++
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.Info("idle sessions dropped", "count", n, "active", m.Len())
			}
		}
	}
}
