package repository

import (
	"context"
	"errors"
	"time"

	"accounts_backend/internal/users/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")
var ErrDuplicateUsername = errors.New("username already exists")

const userColumns = `id, username, password_hash, role, reset_token, reset_token_expires, created_at, updated_at`

// DB is the subset of pgxpool.Pool the repository needs. Narrowing to an
// interface lets tests substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the pgx-backed user store. Single-row consistency (the
// read-modify-write on reset tokens and password updates) is delegated to
// the database; each mutation here is one statement.
type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, username, passwordHash string, role domain.Role) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns+`
	`, username, passwordHash, string(role))

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.User{}, ErrDuplicateUsername
		}
		return domain.User{}, err
	}
	return user, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id)
	return scanUserNotFound(row)
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE username = $1
	`, username)
	return scanUserNotFound(row)
}

func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update applies the non-nil fields in one statement. Password must already
// be hashed by the caller.
func (r *Repository) Update(ctx context.Context, id int64, username, passwordHash *string, role *domain.Role) (domain.User, error) {
	var roleValue *string
	if role != nil {
		raw := string(*role)
		roleValue = &raw
	}

	row := r.db.QueryRow(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			password_hash = COALESCE($3, password_hash),
			role = COALESCE($4, role),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, username, passwordHash, roleValue)

	user, err := scanUserNotFound(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.User{}, ErrDuplicateUsername
		}
		return domain.User{}, err
	}
	return user, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores the reset token verbatim with its expiry, replacing
// any outstanding token for the user.
func (r *Repository) SetResetToken(ctx context.Context, id int64, token string, expires time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires = $3, updated_at = now()
		WHERE id = $1
	`, id, token, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword stores the new password hash and clears the reset token in
// the same statement, so no state exists where the new password is stored
// but the consumed token is still valid.
func (r *Repository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			password_hash = $2,
			reset_token = NULL,
			reset_token_expires = NULL,
			updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.ResetToken,
		&user.ResetTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = domain.Role(role)
	return user, nil
}

func scanUserNotFound(row pgx.Row) (domain.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	return user, err
}
