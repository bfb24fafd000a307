package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/workflow"
)

const collectionColumns = `c.id, c.owner_id, c.agent_id, c.mass, c.evidence, c.status, c.submitted_at,
	o.address, o.city, o.state`

const collectionFrom = ` FROM collections c JOIN accounts o ON o.id = c.owner_id`

func scanCollection(row pgx.Row) (*model.CollectionRequest, error) {
	var (
		c      model.CollectionRequest
		mass   int64
		status string
	)
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.AgentID, &mass, &c.Evidence, &status, &c.SubmittedAt,
		&c.OwnerAddress, &c.OwnerCity, &c.OwnerState,
	)
	if err != nil {
		return nil, err
	}
	c.Mass = hundredths(mass)
	c.Status = model.CollectionStatus(status)
	return &c, nil
}

func collectRows(rows pgx.Rows) ([]model.CollectionRequest, error) {
	defer rows.Close()

	res := []model.CollectionRequest{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		res = append(res, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateCollection создаёт заявку в состоянии Requested. Масса передаётся в сотых долях килограмма.
func (r *PostgresRepository) CreateCollection(ctx context.Context, ownerID, massHundredths int64, evidence string) (*model.CollectionRequest, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO collections (owner_id, mass, evidence, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		ownerID, massHundredths, evidence, string(model.CollectionRequested),
	).Scan(&id)
	if err != nil {
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("insert collection: %w", err)
	}

	return r.GetCollection(ctx, id)
}

// GetCollection возвращает заявку по идентификатору.
func (r *PostgresRepository) GetCollection(ctx context.Context, id int64) (*model.CollectionRequest, error) {
	c, err := scanCollection(r.pool.QueryRow(ctx,
		`SELECT `+collectionColumns+collectionFrom+` WHERE c.id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

// GetCollectionsByOwner возвращает заявки пользователя, новые первыми.
func (r *PostgresRepository) GetCollectionsByOwner(ctx context.Context, ownerID int64) ([]model.CollectionRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+collectionColumns+collectionFrom+`
		 WHERE c.owner_id = $1
		 ORDER BY c.submitted_at DESC, c.id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}
	return collectRows(rows)
}

// GetRequestedCollections возвращает все ещё не взятые заявки, старые первыми.
func (r *PostgresRepository) GetRequestedCollections(ctx context.Context) ([]model.CollectionRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+collectionColumns+collectionFrom+`
		 WHERE c.status = $1
		 ORDER BY c.submitted_at, c.id`,
		string(model.CollectionRequested),
	)
	if err != nil {
		return nil, fmt.Errorf("select requested collections: %w", err)
	}
	return collectRows(rows)
}

func lockCollection(ctx context.Context, tx pgx.Tx, id int64) (*model.CollectionRequest, error) {
	c, err := scanCollection(tx.QueryRow(ctx,
		`SELECT `+collectionColumns+collectionFrom+` WHERE c.id = $1 FOR UPDATE OF c`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("lock collection: %w", err)
	}
	return c, nil
}

// casStatus обновляет статус, только если он всё ещё равен ожидаемому.
func casStatus(ctx context.Context, tx pgx.Tx, next model.CollectionRequest, expected model.CollectionStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE collections SET status = $1, agent_id = $2 WHERE id = $3 AND status = $4`,
		string(next.Status), next.AgentID, next.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("update collection status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return apperr.State("request %d changed concurrently", next.ID)
	}
	return nil
}

// ClaimCollection закрепляет заявку за агентом: Requested -> Pending.
func (r *PostgresRepository) ClaimCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error) {
	var res model.CollectionRequest

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := lockCollection(ctx, tx, requestID)
		if err != nil {
			return err
		}

		next, err := workflow.Claim(*cur, agentID)
		if err != nil {
			return err
		}

		if err := casStatus(ctx, tx, next, cur.Status); err != nil {
			return err
		}

		res = next
		return nil
	})
	if err != nil {
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &res, nil
}

// FinalizeCollection завершает сбор: Pending -> Collected.
// В той же транзакции масса заявки прибавляется к сданной массе владельца.
func (r *PostgresRepository) FinalizeCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error) {
	var res model.CollectionRequest

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := lockCollection(ctx, tx, requestID)
		if err != nil {
			return err
		}

		next, err := workflow.Finalize(*cur, agentID)
		if err != nil {
			return err
		}

		if err := casStatus(ctx, tx, next, cur.Status); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE accounts SET recycled_mass = recycled_mass + (SELECT mass FROM collections WHERE id = $1)
			 WHERE id = $2`,
			next.ID, next.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("add recycled mass: %w", err)
		}

		res = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}
