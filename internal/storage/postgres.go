package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists users and renderings in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// CreateUser stores a new account, failing on a duplicate email.
func (s *PostgresStore) CreateUser(ctx context.Context, input User) (User, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.CreatedAt.IsZero() {
		input.CreatedAt = time.Now().UTC()
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		input.ID, input.Email, input.Name, input.PasswordHash, input.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return input, nil
}

// GetUserByEmail fetches an account by its unique email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, COALESCE(name, ''), password_hash, created_at FROM users WHERE email = $1`, email)
}

// GetUserByID fetches an account by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, COALESCE(name, ''), password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, email, COALESCE(name, ''), password_hash, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes an account. The user's renderings are left in place.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRendering validates and inserts a rendering row.
func (s *PostgresStore) CreateRendering(ctx context.Context, input Rendering) (Rendering, error) {
	if err := validateRendering(input); err != nil {
		return Rendering{}, err
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.CreatedAt.IsZero() {
		input.CreatedAt = time.Now().UTC()
	}
	if input.Options == nil {
		input.Options = map[string]string{}
	}

	opts, err := json.Marshal(input.Options)
	if err != nil {
		return Rendering{}, fmt.Errorf("encode options: %w", err)
	}

	var owner any
	if input.OwnerID != "" {
		owner = input.OwnerID
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO renderings (id, owner_id, category, subcategory, options, prompt, image_path, liked, favorited, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		input.ID, owner, input.Category, input.Subcategory, opts, input.Prompt,
		input.ImagePath, input.Liked, input.Favorited, input.CreatedAt); err != nil {
		return Rendering{}, fmt.Errorf("insert rendering: %w", err)
	}

	return input, nil
}

const renderingColumns = `id, COALESCE(owner_id, ''), category, subcategory, options, prompt, image_path, liked, favorited, created_at`

// scopeClause appends the scope's SQL predicate and arguments. A guest scope
// with no accumulated ids matches nothing, which callers short-circuit.
func scopeClause(scope Scope, args []any) (string, []any) {
	if !scope.IsGuest() {
		args = append(args, scope.OwnerID)
		return fmt.Sprintf("owner_id = $%d", len(args)), args
	}
	args = append(args, scope.GuestIDs)
	return fmt.Sprintf("owner_id IS NULL AND id = ANY($%d)", len(args)), args
}

// ListRenderings returns every rendering inside the scope, newest first.
func (s *PostgresStore) ListRenderings(ctx context.Context, scope Scope) ([]Rendering, error) {
	if scope.IsGuest() && len(scope.GuestIDs) == 0 {
		return []Rendering{}, nil
	}
	clause, args := scopeClause(scope, nil)
	return s.queryRenderings(ctx,
		fmt.Sprintf(`SELECT %s FROM renderings WHERE %s ORDER BY created_at DESC, id DESC`, renderingColumns, clause),
		args...)
}

// ListByIDs returns the subset of the requested ids that fall inside the
// scope, newest first. Ids outside the scope are silently dropped.
func (s *PostgresStore) ListByIDs(ctx context.Context, scope Scope, ids []string) ([]Rendering, error) {
	if len(ids) == 0 || (scope.IsGuest() && len(scope.GuestIDs) == 0) {
		return []Rendering{}, nil
	}
	args := []any{ids}
	clause, args := scopeClause(scope, args)
	return s.queryRenderings(ctx,
		fmt.Sprintf(`SELECT %s FROM renderings WHERE id = ANY($1) AND %s ORDER BY created_at DESC, id DESC`, renderingColumns, clause),
		args...)
}

// GetRendering fetches one rendering if the scope admits it.
func (s *PostgresStore) GetRendering(ctx context.Context, scope Scope, id string) (Rendering, error) {
	items, err := s.ListByIDs(ctx, scope, []string{id})
	if err != nil {
		return Rendering{}, err
	}
	if len(items) == 0 {
		return Rendering{}, ErrNotFound
	}
	return items[0], nil
}

func (s *PostgresStore) queryRenderings(ctx context.Context, query string, args ...any) ([]Rendering, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renderings: %w", err)
	}
	defer rows.Close()

	items := []Rendering{}
	for rows.Next() {
		item, err := scanRendering(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRendering(row pgx.Row) (Rendering, error) {
	var item Rendering
	var opts []byte
	if err := row.Scan(&item.ID, &item.OwnerID, &item.Category, &item.Subcategory, &opts,
		&item.Prompt, &item.ImagePath, &item.Liked, &item.Favorited, &item.CreatedAt); err != nil {
		return Rendering{}, fmt.Errorf("scan rendering: %w", err)
	}
	if err := json.Unmarshal(opts, &item.Options); err != nil {
		return Rendering{}, fmt.Errorf("decode options: %w", err)
	}
	return item, nil
}

// SetFlag toggles liked or favorited on the scoped subset of ids and reports
// how many rows changed.
func (s *PostgresStore) SetFlag(ctx context.Context, scope Scope, ids []string, field string, value bool) (int, error) {
	if !validFlag(field) {
		return 0, fmt.Errorf("unknown flag %q", field)
	}
	if len(ids) == 0 || (scope.IsGuest() && len(scope.GuestIDs) == 0) {
		return 0, nil
	}
	args := []any{value, ids}
	clause, args := scopeClause(scope, args)
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE renderings SET %s = $1 WHERE id = ANY($2) AND %s`, field, clause),
		args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", field, err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteRenderings removes the scoped subset of ids and returns the deleted
// rows so the caller can clean up their stored artifacts.
func (s *PostgresStore) DeleteRenderings(ctx context.Context, scope Scope, ids []string) ([]Rendering, error) {
	if len(ids) == 0 || (scope.IsGuest() && len(scope.GuestIDs) == 0) {
		return []Rendering{}, nil
	}
	args := []any{ids}
	clause, args := scopeClause(scope, args)
	return s.queryRenderings(ctx,
		fmt.Sprintf(`DELETE FROM renderings WHERE id = ANY($1) AND %s RETURNING %s`, clause, renderingColumns),
		args...)
}

// CountFavorited reports how many scoped renderings are favorited.
func (s *PostgresStore) CountFavorited(ctx context.Context, scope Scope) (int, error) {
	if scope.IsGuest() && len(scope.GuestIDs) == 0 {
		return 0, nil
	}
	clause, args := scopeClause(scope, nil)
	var count int
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM renderings WHERE favorited AND %s`, clause),
		args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count favorited: %w", err)
	}
	return count, nil
}

// CountRenderings reports the total number of stored renderings.
func (s *PostgresStore) CountRenderings(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM renderings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count renderings: %w", err)
	}
	return count, nil
}

// ClaimRenderings assigns ownerless renderings to a user. Rows that already
// have an owner are left untouched.
func (s *PostgresStore) ClaimRenderings(ctx context.Context, ids []string, ownerID string) (int, error) {
	if len(ids) == 0 || ownerID == "" {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE renderings SET owner_id = $1 WHERE id = ANY($2) AND owner_id IS NULL`,
		ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("claim renderings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
