package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moviehub/internal/models"
)

// Users is the credential store.
type Users struct {
	db DBTX
}

func NewUsers(db DBTX) *Users {
	return &Users{db: db}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user with the default role. A duplicate email is
// reported as ErrConflict.
func (s *Users) Create(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || passwordHash == "" {
		return models.User{}, invalid("Name, email, and password are required")
	}

	u := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(name,email,password_hash,role,created_at) VALUES(?,?,?,?,?)`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return models.User{}, conflict("Email already registered")
	} else if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return models.User{}, err
	}
	return u, nil
}

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *Users) ByID(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, notFound("User")
	} else if err != nil {
		return models.User{}, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}

func (s *Users) ByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, notFound("User")
	} else if err != nil {
		return models.User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

func (s *Users) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Promote grants the admin role to the user with the given email.
func (s *Users) Promote(ctx context.Context, email string) (models.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, models.RoleAdmin, NormalizeEmail(email))
	if err != nil {
		return models.User{}, fmt.Errorf("promote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, notFound("User")
	}
	return s.ByEmail(ctx, email)
}
