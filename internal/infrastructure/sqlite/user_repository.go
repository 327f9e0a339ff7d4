package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userRow struct {
	ID               string `db:"id"`
	Username         string `db:"username"`
	PasswordHash     string `db:"password_hash"`
	FirstName        string `db:"first_name"`
	LastName         string `db:"last_name"`
	Phone            string `db:"phone"`
	Email            string `db:"email"`
	Role             string `db:"role"`
	IsActive         bool   `db:"is_active"`
	TwoFactorEnabled bool   `db:"two_factor_enabled"`
	CreatedAt        string `db:"created_at"`
	UpdatedAt        string `db:"updated_at"`
}

func (r userRow) toEntity() (*entity.User, error) {
	u := &entity.User{
		ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, FirstName: r.FirstName,
		LastName: r.LastName, Phone: r.Phone, Email: r.Email, Role: r.Role,
		IsActive: r.IsActive, TwoFactorEnabled: r.TwoFactorEnabled,
	}
	var err error
	if u.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

const userColumns = `id, username, password_hash, first_name, last_name, phone, email, role,
		is_active, two_factor_enabled, created_at, updated_at`

// UserRepo usuarios sobre SQLite.
type UserRepo struct {
	q sqlx.ExtContext
}

// NewUserRepository construye el adaptador de usuarios.
func NewUserRepository(q sqlx.ExtContext) *UserRepo {
	return &UserRepo{q: q}
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Email, u.Role,
		u.IsActive, u.TwoFactorEnabled, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("sqlite insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, op, where, arg string) (*entity.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite %s: %w", op, err)
	}
	return row.toEntity()
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "get user by id", `id = ?`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, "get user by username", `username = ? COLLATE NOCASE`, strings.TrimSpace(username))
}

func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET username = ?, password_hash = ?, first_name = ?, last_name = ?, phone = ?, email = ?,
			role = ?, is_active = ?, two_factor_enabled = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Email,
		u.Role, u.IsActive, u.TwoFactorEnabled, formatTime(u.UpdatedAt), u.ID,
	)
	return rowsAffected(res, err, "update user")
}

func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+userColumns+` FROM users ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("sqlite list users: %w", err)
	}
	out := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return rowsAffected(res, err, "delete user")
}
