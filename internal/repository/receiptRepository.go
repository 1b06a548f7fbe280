package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrReceiptAlreadyExists = errors.New("receipt already exists")
	ErrReceiptNotFound      = errors.New("receipt not found")
)

type ReceiptRepo interface {
	AddReceipt(ctx context.Context, r domain.Receipt) error
	GetReceipt(ctx context.Context, orderID int64) (*domain.Receipt, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Receipt, error)
}

type ReceiptRepository struct {
	pool *pgxpool.Pool
}

func NewReceiptRepository(p *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: p}
}

// AddReceipt stores the receipt and its line items in one transaction.
// ErrReceiptAlreadyExists is returned when the order id was recorded before.
func (p *ReceiptRepository) AddReceipt(ctx context.Context, r domain.Receipt) (err error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	t := r.Order.Totals
	tag, err := tx.Exec(ctx, `
		INSERT INTO storefront.receipts
			(order_id, shopper_id, email, payment_id, payment_status, receipt_url,
			 subtotal_cents, tax_cents, shipping_cents, total_cents, currency, payload)
		VALUES
			($1, $2, $3, $4, $5, $6,
			 $7, $8, $9, $10, $11, $12)
		ON CONFLICT (order_id) DO NOTHING
	`,
		r.Order.OrderID,
		r.ShopperID,
		r.Email,
		r.Payment.ID,
		r.Payment.Status,
		r.Payment.ReceiptURL,
		t.SubtotalCents,
		t.TaxCents,
		t.ShippingCents,
		t.TotalCents,
		t.Currency,
		string(payload),
	)
	if err != nil {
		logger.Warn("insert receipt failed", "order_id", r.Order.OrderID, "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrReceiptAlreadyExists
		return err
	}

	if len(r.Order.LineItems) > 0 {
		batch := &pgx.Batch{}
		for _, l := range r.Order.LineItems {
			batch.Queue(`
				INSERT INTO storefront.receipt_lines
					(order_id, line_id, item_id, title, quantity, unit_price_cents)
				VALUES
					($1, $2, $3, $4, $5, $6)
			`,
				r.Order.OrderID,
				l.ID,
				l.ItemID,
				l.Title,
				l.Quantity,
				l.UnitPriceCents,
			)
		}
		br := tx.SendBatch(ctx, batch)
		if err = br.Close(); err != nil {
			return fmt.Errorf("insert receipt lines: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit receipt: %w", err)
	}
	return nil
}

func (p *ReceiptRepository) GetReceipt(ctx context.Context, orderID int64) (*domain.Receipt, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM storefront.receipts WHERE order_id = $1`, orderID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}

	var r domain.Receipt
	if err = json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode receipt %d: %w", orderID, err)
	}
	return &r, nil
}

// ListRecent returns up to limit receipts, newest first. Rows whose payload
// no longer decodes are skipped.
func (p *ReceiptRepository) ListRecent(ctx context.Context, limit int) ([]domain.Receipt, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT order_id, payload FROM storefront.receipts ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Receipt, 0, limit)
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err = rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var r domain.Receipt
		if err = json.Unmarshal(payload, &r); err != nil {
			logger.Warn("failed to unmarshal receipt payload; skip", "order_id", id, "err", err)
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
