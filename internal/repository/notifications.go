package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/mmeshcher/cygree/internal/model"
)

// CreateNotification сохраняет уведомление для пользователя.
func (r *PostgresRepository) CreateNotification(ctx context.Context, accountID int64, message string, importance model.Importance) (*model.Notification, error) {
	n := model.Notification{
		AccountID:  accountID,
		Message:    message,
		Importance: importance,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (account_id, message, importance) VALUES ($1, $2, $3)
		 RETURNING id, read, created_at`,
		accountID, message, string(importance),
	).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &n, nil
}

// GetNotifications возвращает уведомления пользователя, новые первыми.
func (r *PostgresRepository) GetNotifications(ctx context.Context, accountID int64) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, message, importance, read, created_at
		 FROM notifications
		 WHERE account_id = $1
		 ORDER BY created_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	res := []model.Notification{}
	for rows.Next() {
		var (
			n          model.Notification
			importance string
		)
		if err := rows.Scan(&n.ID, &n.Message, &importance, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.AccountID = accountID
		n.Importance = model.Importance(importance)
		res = append(res, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkNotificationRead отмечает уведомление прочитанным. Повторный вызов не ошибка.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND account_id = $2`,
		notificationID, accountID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
