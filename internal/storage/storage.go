package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"architect3d/internal/catalog"
)

// ErrNotFound indicates that a record could not be located in the backing store.
var ErrNotFound = errors.New("record not found")

// ErrUserExists indicates a registration against an already-taken email.
var ErrUserExists = errors.New("email already registered")

// Flag columns that bulk actions may toggle. Anything else is rejected.
const (
	FlagLiked     = "liked"
	FlagFavorited = "favorited"
)

// User is a registered account. Guests never get a user row.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Rendering is one generated image plus the inputs that produced it. Content
// is immutable after insert; only the liked/favorited flags change in place,
// and a "modify" always inserts a new row.
type Rendering struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id,omitempty"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Options     map[string]string `json:"options"`
	Prompt      string            `json:"prompt"`
	ImagePath   string            `json:"image_path"`
	Liked       bool              `json:"liked"`
	Favorited   bool              `json:"favorited"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Scope is the authorization boundary every rendering query runs under:
// either a registered owner, or the explicit set of rendering ids an
// anonymous session has accumulated. The store never sees sessions, only
// this value.
type Scope struct {
	OwnerID  string
	GuestIDs []string
}

// ForUser builds a registered-owner scope.
func ForUser(ownerID string) Scope { return Scope{OwnerID: ownerID} }

// ForGuest builds an anonymous scope over the given rendering ids.
func ForGuest(ids []string) Scope { return Scope{GuestIDs: ids} }

// IsGuest reports whether the scope belongs to an anonymous session.
func (s Scope) IsGuest() bool { return s.OwnerID == "" }

// Admits reports whether a rendering falls inside the scope. Guest scopes
// admit only ownerless rows, so a stale cookie id can never reach another
// user's rendering.
func (s Scope) Admits(r Rendering) bool {
	if !s.IsGuest() {
		return r.OwnerID == s.OwnerID
	}
	if r.OwnerID != "" {
		return false
	}
	for _, id := range s.GuestIDs {
		if id == r.ID {
			return true
		}
	}
	return false
}

// Store defines the persistence behaviors the application relies on.
type Store interface {
	CreateUser(ctx context.Context, input User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateRendering(ctx context.Context, input Rendering) (Rendering, error)
	ListRenderings(ctx context.Context, scope Scope) ([]Rendering, error)
	ListByIDs(ctx context.Context, scope Scope, ids []string) ([]Rendering, error)
	GetRendering(ctx context.Context, scope Scope, id string) (Rendering, error)
	SetFlag(ctx context.Context, scope Scope, ids []string, field string, value bool) (int, error)
	DeleteRenderings(ctx context.Context, scope Scope, ids []string) ([]Rendering, error)
	CountFavorited(ctx context.Context, scope Scope) (int, error)
	CountRenderings(ctx context.Context) (int, error)
	ClaimRenderings(ctx context.Context, ids []string, ownerID string) (int, error)

	Close()
}

// NewStore selects a backing store based on whether a database URL is provided.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func validateRendering(r Rendering) error {
	if !catalog.Known(r.Subcategory) {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownSubcategory, r.Subcategory)
	}
	if r.ImagePath == "" {
		return errors.New("rendering is missing an image path")
	}
	if r.Prompt == "" {
		return errors.New("rendering is missing its prompt")
	}
	return catalog.ValidateSelections(r.Subcategory, r.Options)
}

func validFlag(field string) bool {
	return field == FlagLiked || field == FlagFavorited
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS renderings (
			id TEXT PRIMARY KEY,
			owner_id TEXT REFERENCES users(id),
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL,
			options JSONB NOT NULL DEFAULT '{}'::jsonb,
			prompt TEXT NOT NULL,
			image_path TEXT UNIQUE NOT NULL,
			liked BOOLEAN NOT NULL DEFAULT FALSE,
			favorited BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS renderings_owner_idx ON renderings (owner_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
