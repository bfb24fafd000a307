package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cygree/internal/model"
)

// IssueIncentive записывает поощрение. Если сданная масса пользователя достигла порога,
// сумма поощрения в той же транзакции зачисляется в баллы.
func (r *PostgresRepository) IssueIncentive(ctx context.Context, accountID, amount int64, rewardType model.RewardType, threshold int64) (*model.Incentive, error) {
	res := model.Incentive{
		AccountID: accountID,
		Amount:    hundredths(amount),
		Type:      rewardType,
		Threshold: hundredths(threshold),
	}

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var recycled int64
		err := tx.QueryRow(ctx,
			`SELECT recycled_mass FROM accounts WHERE id = $1 FOR UPDATE`,
			accountID,
		).Scan(&recycled)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}

		applied := recycled >= threshold

		err = tx.QueryRow(ctx,
			`INSERT INTO incentives (account_id, amount, reward_type, threshold, applied)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, issued_at`,
			accountID, amount, string(rewardType), threshold, applied,
		).Scan(&res.ID, &res.IssuedAt)
		if err != nil {
			return fmt.Errorf("insert incentive: %w", err)
		}

		if applied {
			_, err = tx.Exec(ctx, `UPDATE accounts SET points = points + $1 WHERE id = $2`, amount, accountID)
			if err != nil {
				return fmt.Errorf("add points: %w", err)
			}
		}

		res.Applied = applied
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// GetIncentives возвращает поощрения пользователя, новые первыми.
func (r *PostgresRepository) GetIncentives(ctx context.Context, accountID int64) ([]model.Incentive, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, amount, reward_type, threshold, applied, issued_at
		 FROM incentives
		 WHERE account_id = $1
		 ORDER BY issued_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select incentives: %w", err)
	}
	defer rows.Close()

	res := []model.Incentive{}
	for rows.Next() {
		var (
			in                model.Incentive
			amount, threshold int64
			rewardType        string
		)
		if err := rows.Scan(&in.ID, &amount, &rewardType, &threshold, &in.Applied, &in.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan incentive: %w", err)
		}
		in.AccountID = accountID
		in.Amount = hundredths(amount)
		in.Threshold = hundredths(threshold)
		in.Type = model.RewardType(rewardType)
		res = append(res, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
