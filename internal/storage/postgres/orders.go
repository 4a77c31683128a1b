package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
	"github.com/polkiloo/channelpass/internal/domain/repository"
)

const uniqueViolation = "23505"

const orderColumns = `id, user_id, plan_id, duration_months, price, status, proof_ref, grant_ref,
                      created_at, updated_at, confirmed_at, expires_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.PlanID, &o.DurationMonths, &o.Price, &o.Status, &o.ProofRef, &o.GrantRef,
		&o.CreatedAt, &o.UpdatedAt, &o.ConfirmedAt, &o.ExpiresAt,
	)
	return o, err
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	const query = `INSERT INTO orders (user_id, plan_id, duration_months, price, status, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   RETURNING id`
	created := *order
	err := r.storage.pool.QueryRow(ctx, query,
		order.UserID, order.PlanID, order.DurationMonths, order.Price, order.Status, order.CreatedAt, order.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domainErrors.ErrOrderInProgress
		}
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) LatestByUser(ctx context.Context, userID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`
	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status=$1 AND expires_at <= $2
              ORDER BY expires_at
              LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, model.OrderStatusConfirmed, now, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) Transition(ctx context.Context, sel repository.OrderSelector, fn func(*model.Order) error) (*repository.TransitionResult, error) {
	var result *repository.TransitionResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := lockCandidates(ctx, tx, sel)
		if err != nil {
			return err
		}
		candidates, err := collectOrders(rows)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return domainErrors.ErrNotFound
		}

		order := candidates[0]
		from := order.Status
		if err := fn(&order); err != nil {
			return err
		}

		const update = `UPDATE orders
                        SET status=$1, proof_ref=$2, grant_ref=$3, updated_at=$4, confirmed_at=$5, expires_at=$6
                        WHERE id=$7 AND status=$8`
		tag, err := tx.Exec(ctx, update,
			order.Status, order.ProofRef, order.GrantRef, order.UpdatedAt, order.ConfirmedAt, order.ExpiresAt,
			order.ID, from,
		)
		if err != nil {
			return fmt.Errorf("update order %d: %w", order.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrStaleOrder
		}

		result = &repository.TransitionResult{Order: &order, Shadowed: len(candidates) - 1}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockCandidates selects qualifying orders newest first and locks them until
// the transaction ends.
func lockCandidates(ctx context.Context, tx pgx.Tx, sel repository.OrderSelector) (pgx.Rows, error) {
	if sel.ID != 0 {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1 AND status=$2 FOR UPDATE`
		return tx.Query(ctx, query, sel.ID, sel.Status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 AND status=$2
              ORDER BY created_at DESC, id DESC FOR UPDATE`
	return tx.Query(ctx, query, sel.UserID, sel.Status)
}
