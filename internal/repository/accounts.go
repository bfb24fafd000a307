package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cygree/internal/model"
)

const accountColumns = `id, login, password_hash, first_name, last_name, email, role,
	address, city, state, country, phone, points, recycled_mass, created_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a            model.Account
		role         string
		points       int64
		recycledMass int64
	)
	err := row.Scan(
		&a.ID, &a.Login, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Email, &role,
		&a.Location.Address, &a.Location.City, &a.Location.State, &a.Location.Country, &a.Phone,
		&points, &recycledMass, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	a.Points = hundredths(points)
	a.RecycledMass = hundredths(recycledMass)
	return &a, nil
}

// CreateAccount создаёт нового пользователя и возвращает его идентификатор.
func (r *PostgresRepository) CreateAccount(ctx context.Context, a model.Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (login, password_hash, first_name, last_name, email, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.Login, a.PasswordHash, a.FirstName, a.LastName, a.Email, string(a.Role),
	).Scan(&id)
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return 0, ErrAccountExists
		}
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

// GetAccountByLogin возвращает пользователя по логину.
func (r *PostgresRepository) GetAccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE login = $1`,
		login,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by login: %w", err)
	}
	return a, nil
}

// GetAccount возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// UpdateProfile изменяет переданные поля профиля и возвращает обновлённого пользователя.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts SET
			address = COALESCE($2, address),
			city    = COALESCE($3, city),
			state   = COALESCE($4, state),
			country = COALESCE($5, country),
			phone   = COALESCE($6, phone)
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, upd.Address, upd.City, upd.State, upd.Country, upd.Phone,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

// DeleteAccount удаляет пользователя вместе с зависимыми записями.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
