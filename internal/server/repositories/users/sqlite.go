package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/dbx"
	"github.com/dmitrijs2005/cityai/internal/server/models"
)

const selectUser = `
	SELECT id, email, name, department, role, password_hash, verified, code_hash, code_expires, code_attempts, created_at
	FROM users
`

// SQLiteRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, name, department, role, password_hash, verified, code_hash, code_expires, code_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.Department, u.Role, u.PasswordHash, u.Verified,
		u.CodeHash, unixNano(u.CodeExpires), u.CodeAttempts, unixNano(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

func (r *SQLiteRepository) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET name = ?, department = ?, role = ?, password_hash = ?, verified = ?, code_hash = ?, code_expires = ?, code_attempts = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		u.Name, u.Department, u.Role, u.PasswordHash, u.Verified, u.CodeHash, unixNano(u.CodeExpires), u.CodeAttempts, u.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var codeExpires, createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Department, &u.Role, &u.PasswordHash,
		&u.Verified, &u.CodeHash, &codeExpires, &u.CodeAttempts, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CodeExpires = fromUnixNano(codeExpires)
	u.CreatedAt = fromUnixNano(createdAt)
	return u, nil
}

// Timestamps are stored as unix nanoseconds; zero time is stored as 0.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
