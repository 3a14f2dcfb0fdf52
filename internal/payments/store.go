package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record pair not found")

// RecordStore is the dual-write contract the checkout and reconcile services
// depend on. The pair is only ever touched through these two operations,
// never via single-row writes.
type RecordStore interface {
	CreateBoth(ctx context.Context, txn Transaction, ord Order) error
	UpdateBoth(ctx context.Context, reference string, txnStatus, ordStatus Status) error
}

// StatusReader serves the order-status read endpoint.
type StatusReader interface {
	GetOrderStatus(ctx context.Context, id string) (Status, error)
}

type Store struct{ DB *pgxpool.Pool }

// CreateBoth writes the transaction and its order in one DB transaction.
// Both writes are upserts keyed by the gateway reference, so replaying the
// same charge result replaces the pair instead of duplicating it.
func (s *Store) CreateBoth(ctx context.Context, txn Transaction, ord Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions(id, amount, transaction_date, status, reference,
		                         channel, message, fees, gateway_response, user_id, order_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			amount=EXCLUDED.amount, transaction_date=EXCLUDED.transaction_date,
			status=EXCLUDED.status, reference=EXCLUDED.reference,
			channel=EXCLUDED.channel, message=EXCLUDED.message, fees=EXCLUDED.fees,
			gateway_response=EXCLUDED.gateway_response, user_id=EXCLUDED.user_id,
			order_id=EXCLUDED.order_id`,
		txn.ID, txn.Amount, txn.TransactionDate, string(txn.Status), txn.Reference,
		txn.Channel, txn.Message, txn.Fees.String(), txn.GatewayResponse, txn.UserID, txn.OrderID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, transaction_ref, status, user_id, order_date, date, draft)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			transaction_ref=EXCLUDED.transaction_ref, status=EXCLUDED.status,
			user_id=EXCLUDED.user_id, order_date=EXCLUDED.order_date,
			date=EXCLUDED.date, draft=EXCLUDED.draft`,
		ord.ID, ord.TransactionRef, string(ord.Status), ord.UserID, ord.OrderDate, ord.Date, []byte(ord.Draft))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateBoth applies status-only updates to the pair. Update semantics, not
// upsert: if either row is missing nothing is committed and ErrNotFound comes
// back. A webhook racing its own checkout hits this path and relies on the
// gateway redelivering.
func (s *Store) UpdateBoth(ctx context.Context, reference string, txnStatus, ordStatus Status) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `UPDATE transactions SET status=$2 WHERE id=$1`, reference, string(txnStatus))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("transaction %s: %w", reference, ErrNotFound)
	}

	ct, err = tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, reference, string(ordStatus))
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("order %s: %w", reference, ErrNotFound)
	}

	return tx.Commit(ctx)
}

func (s *Store) GetOrderStatus(ctx context.Context, id string) (Status, error) {
	var st string
	err := s.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return Status(st), nil
}
