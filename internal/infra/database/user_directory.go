package database

import (
	"context"
	"database/sql"
	"fmt"
)

// UserDirectory resolves user ids to deliverable addresses for the
// notification worker.
type UserDirectory struct {
	DB *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{DB: db}
}

func (d *UserDirectory) FindEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.DB.QueryRowContext(ctx,
		`SELECT email FROM users WHERE id = $1`, userID,
	).Scan(&email)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no such user: %s", userID)
	}
	if err != nil {
		return "", err
	}
	return email, nil
}
