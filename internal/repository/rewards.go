package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cygree/internal/model"
)

// CreateReward добавляет позицию в каталог наград.
func (r *PostgresRepository) CreateReward(ctx context.Context, title string, pointsRequired int64) (*model.RewardEntry, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO rewards (title, points_required) VALUES ($1, $2) RETURNING id`,
		title, pointsRequired,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	return &model.RewardEntry{ID: id, Title: title, PointsRequired: hundredths(pointsRequired)}, nil
}

func collectRewards(rows pgx.Rows) ([]model.RewardEntry, error) {
	defer rows.Close()

	res := []model.RewardEntry{}
	for rows.Next() {
		var (
			e        model.RewardEntry
			required int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &required); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		e.PointsRequired = hundredths(required)
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// GetRewards возвращает весь каталог наград.
func (r *PostgresRepository) GetRewards(ctx context.Context) ([]model.RewardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, points_required FROM rewards ORDER BY points_required, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select rewards: %w", err)
	}
	return collectRewards(rows)
}

// GetClaimableRewards возвращает награды, доступные по баллам и ещё не полученные пользователем.
func (r *PostgresRepository) GetClaimableRewards(ctx context.Context, accountID int64) ([]model.RewardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rw.id, rw.title, rw.points_required
		 FROM rewards rw
		 JOIN accounts a ON a.id = $1
		 WHERE rw.points_required <= a.points
		   AND NOT EXISTS (
		       SELECT 1 FROM reward_claims rc
		       WHERE rc.account_id = a.id AND rc.reward_id = rw.id
		   )
		 ORDER BY rw.points_required, rw.id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select claimable rewards: %w", err)
	}
	return collectRewards(rows)
}

// ClaimReward фиксирует получение награды. Баллы не списываются.
// Уникальный индекс (account_id, reward_id) гарантирует, что при гонке запись будет одна.
func (r *PostgresRepository) ClaimReward(ctx context.Context, accountID, rewardID int64) (*model.RewardClaim, error) {
	var res model.RewardClaim

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			title    string
			required int64
		)
		err := tx.QueryRow(ctx,
			`SELECT title, points_required FROM rewards WHERE id = $1`,
			rewardID,
		).Scan(&title, &required)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRewardNotFound
			}
			return fmt.Errorf("select reward: %w", err)
		}

		var points int64
		err = tx.QueryRow(ctx,
			`SELECT points FROM accounts WHERE id = $1 FOR SHARE`,
			accountID,
		).Scan(&points)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("select points: %w", err)
		}

		if points < required {
			return ErrInsufficientPoints
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO reward_claims (account_id, reward_id) VALUES ($1, $2)
			 ON CONFLICT (account_id, reward_id) DO NOTHING
			 RETURNING id, claimed_at`,
			accountID, rewardID,
		).Scan(&res.ID, &res.ClaimedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("insert reward claim: %w", err)
		}

		res.AccountID = accountID
		res.Reward = model.RewardEntry{ID: rewardID, Title: title, PointsRequired: hundredths(required)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// GetRewardClaims возвращает историю полученных наград, новые первыми.
func (r *PostgresRepository) GetRewardClaims(ctx context.Context, accountID int64) ([]model.RewardClaim, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rc.id, rc.claimed_at, rw.id, rw.title, rw.points_required
		 FROM reward_claims rc
		 JOIN rewards rw ON rw.id = rc.reward_id
		 WHERE rc.account_id = $1
		 ORDER BY rc.claimed_at DESC, rc.id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reward claims: %w", err)
	}
	defer rows.Close()

	res := []model.RewardClaim{}
	for rows.Next() {
		var (
			c        model.RewardClaim
			required int64
		)
		if err := rows.Scan(&c.ID, &c.ClaimedAt, &c.Reward.ID, &c.Reward.Title, &required); err != nil {
			return nil, fmt.Errorf("scan reward claim: %w", err)
		}
		c.AccountID = accountID
		c.Reward.PointsRequired = hundredths(required)
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
