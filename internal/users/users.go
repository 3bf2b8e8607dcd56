package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"toolshub/internal/auth"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExists             = errors.New("username already exists")
)

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Store is what the web layer needs from the user table.
type Store interface {
	Authenticate(ctx context.Context, username, password string) (User, error)
	Lookup(ctx context.Context, id string) (User, error)
}

type PGStore struct {
	DB *pgxpool.Pool
}

func (s *PGStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		u        User
		passHash string
	)
	err := s.DB.QueryRow(ctx,
		`select id::text, username, display_name, role, password_hash
		 from users where username = $1`, strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &passHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if !auth.CheckPassword(password, passHash) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup finds a user by id. An id that is not a uuid cannot exist and
// reports ErrNotFound without a query.
func (s *PGStore) Lookup(ctx context.Context, id string) (User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u User
	err = s.DB.QueryRow(ctx,
		`select id::text, username, display_name, role from users where id = $1::uuid`, uid.String()).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *PGStore) Create(ctx context.Context, username, displayName, role, passwordHash string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := s.DB.QueryRow(ctx, `
		insert into users (username, display_name, password_hash, role)
		values ($1, $2, $3, $4)
		returning id::text, username, display_name, role
	`, username, displayName, passwordHash, role).Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, fmt.Errorf("%w: %q", ErrExists, username)
		}
		return User{}, err
	}
	return u, nil
}
