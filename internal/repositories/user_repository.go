package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"venuebook/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAuthID(authID string) (*models.User, error)
	UpdatePassword(id int, passwordHash string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (auth_id, email, first_name, last_name, user_role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id
	`
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.DB.QueryRow(q,
		user.AuthID, user.Email, user.FirstName, user.LastName, user.Role, user.PasswordHash,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(`WHERE user_id = $1`, id)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByAuthID(authID string) (*models.User, error) {
	return r.getOne(`WHERE auth_id = $1`, authID)
}

func (r *userRepository) getOne(where string, arg any) (*models.User, error) {
	q := `
		SELECT user_id, auth_id, email, first_name, last_name, user_role, password_hash
		FROM users ` + where
	var u models.User
	err := r.DB.QueryRow(q, arg).Scan(
		&u.ID, &u.AuthID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.PasswordHash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get: %w", err)
	}
	return &u, nil
}

func (r *userRepository) UpdatePassword(id int, passwordHash string) error {
	res, err := r.DB.Exec(`UPDATE users SET password_hash = $1 WHERE user_id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user update password: no such user %d", id)
	}
	return nil
}
