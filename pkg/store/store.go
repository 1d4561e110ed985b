// Package store persists user accounts in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID    int64
	Name  string
	Email string
	// Plain text for now; the login surface is development scaffolding.
	Password string
}

type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the user database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening user database: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// UserByEmail returns the user with the given email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// EnsureUser inserts a user unless the email is already taken.
func (s *Store) EnsureUser(ctx context.Context, name, email, password string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`, name, email, password)
	return err
}

// Authenticate checks email/password and returns the matching user.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if u.Password != password {
		return User{}, ErrUserNotFound
	}
	return u, nil
}
