package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubecard/api/pkg/pg"
)

// PostgresStore implements SubscriptionStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool as the subscription ledger.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, status, barcode, gateway_id,
	due_date, start_date, end_date, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.Barcode, &s.GatewayID,
		&s.DueDate, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePending inserts a pending ledger row for a paid checkout.
func (s *PostgresStore) CreatePending(ctx context.Context, params CreatePendingParams) (*Subscription, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_id, status, barcode, gateway_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+subscriptionColumns,
		uuid.New(), params.UserID, params.PlanID, StatusPending,
		params.Barcode, params.GatewayID, params.DueDate, now,
	)
	return scanSubscription(row)
}

// SupersedeActiveAndActivate cancels the user's active rows and inserts
// the replacement inside one transaction. The SELECT ... FOR UPDATE on
// the user's active rows serializes concurrent activations for the same
// user: a stale webhook retry and a fresh checkout cannot both observe
// "no active subscription".
func (s *PostgresStore) SupersedeActiveAndActivate(ctx context.Context, params ActivateParams) (*ActivationResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("billing: failed to begin activation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT barcode FROM subscriptions
		WHERE user_id = $1 AND status = $2
		FOR UPDATE`,
		params.UserID, StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("billing: failed to lock active subscriptions: %w", err)
	}
	var superseded []string
	for rows.Next() {
		var barcode string
		if err := rows.Scan(&barcode); err != nil {
			rows.Close()
			return nil, fmt.Errorf("billing: failed to scan active subscription: %w", err)
		}
		superseded = append(superseded, barcode)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billing: failed to read active subscriptions: %w", err)
	}

	now := time.Now().UTC()

	if len(superseded) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE subscriptions SET status = $1, updated_at = $2
			WHERE user_id = $3 AND status = $4`,
			StatusCancelled, now, params.UserID, StatusActive,
		); err != nil {
			return nil, fmt.Errorf("billing: failed to supersede active subscriptions: %w", err)
		}
	}

	var gatewayID *string
	if params.GatewayID != "" {
		gatewayID = &params.GatewayID
	}

	sub, err := scanSubscription(tx.QueryRow(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_id, status, barcode, gateway_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+subscriptionColumns,
		uuid.New(), params.UserID, params.PlanID, StatusActive,
		params.Barcode, gatewayID, params.StartDate, params.EndDate, now,
	))
	if err != nil {
		return nil, fmt.Errorf("billing: failed to insert active subscription: %w", err)
	}

	if params.Payment != nil {
		p := params.Payment
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (id, subscription_id, user_id, amount, payment_method, status, transaction_id, paid_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), sub.ID, p.UserID, p.Amount, p.Method,
			PaymentCompleted, p.TransactionID, p.PaidAt, now,
		); err != nil {
			return nil, fmt.Errorf("billing: failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("billing: failed to commit activation: %w", err)
	}

	return &ActivationResult{Subscription: sub, SupersededBarcodes: superseded}, nil
}

// Cancel marks a subscription cancelled. Already-cancelled rows pass
// through unchanged; rows never move backward out of cancelled. The
// owner filter makes another user's subscription indistinguishable from
// a missing one.
func (s *PostgresStore) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE id = $1 AND user_id = $2`,
		subscriptionID, userID,
	))
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("billing: failed to load subscription: %w", err)
	}

	if sub.Status == StatusCancelled {
		return sub, nil
	}

	sub, err = scanSubscription(s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
		RETURNING `+subscriptionColumns,
		StatusCancelled, time.Now().UTC(), subscriptionID, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("billing: failed to cancel subscription: %w", err)
	}
	return sub, nil
}

// GetActiveForUser returns the user's most recent active row.
func (s *PostgresStore) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, StatusActive,
	))
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("billing: failed to load active subscription: %w", err)
	}
	return sub, nil
}

// GetByBarcode resolves a card token to its ledger row.
func (s *PostgresStore) GetByBarcode(ctx context.Context, barcode string) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE barcode = $1`,
		barcode,
	))
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("billing: failed to load subscription by barcode: %w", err)
	}
	return sub, nil
}

// PaymentExists reports whether the gateway payment id is already recorded.
func (s *PostgresStore) PaymentExists(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM payments WHERE transaction_id = $1)`,
		transactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("billing: failed to check payment existence: %w", err)
	}
	return exists, nil
}

// PostgresCatalog implements PlanCatalog on the plans table owned by the
// plans CRUD subsystem.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

func (c *PostgresCatalog) GetPlan(ctx context.Context, planID uuid.UUID) (Plan, error) {
	var p Plan
	err := c.pool.QueryRow(ctx, `
		SELECT id, name, price, billing_cycle_days, is_active
		FROM plans WHERE id = $1`,
		planID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.BillingCycleDays, &p.Active)
	if err != nil {
		if pg.IsNotFound(err) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, fmt.Errorf("billing: failed to load plan: %w", err)
	}
	return p, nil
}

var (
	_ SubscriptionStore = (*PostgresStore)(nil)
	_ PlanCatalog       = (*PostgresCatalog)(nil)
)
