package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Directory resolves users and company rosters from Postgres.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := d.pool.QueryRow(ctx, `SELECT id, email FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := d.pool.QueryRow(ctx, `SELECT id, email FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (d *Directory) ListMembers(ctx context.Context, companyID string) ([]domain.User, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, companyID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check company: %w", err)
	}
	if !exists {
		return nil, domain.ErrCompanyNotFound
	}

	rows, err := d.pool.Query(ctx,
		`SELECT u.id, u.email
		 FROM members m JOIN users u ON u.id = m.user_id
		 WHERE m.company_id = $1
		 ORDER BY u.email ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}
