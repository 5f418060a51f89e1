package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, username, hashed_password, full_name, role, is_active, created_at`

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.HashedPassword,
		&u.FullName,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
	)
	return u, err
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND is_active = true`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = true`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users WHERE is_active = true ORDER BY username`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `
INSERT INTO users (username, hashed_password, full_name, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.Username, arg.HashedPassword, arg.FullName, arg.Role))
}

const updateUser = `
UPDATE users
SET full_name = $2, role = $3, hashed_password = COALESCE($4, hashed_password)
WHERE id = $1 AND is_active = true
RETURNING ` + userColumns

type UpdateUserParams struct {
	ID             uuid.UUID   `json:"id"`
	FullName       string      `json:"full_name"`
	Role           string      `json:"role"`
	HashedPassword pgtype.Text `json:"hashed_password"`
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser, arg.ID, arg.FullName, arg.Role, arg.HashedPassword))
}

const softDeleteUser = `UPDATE users SET is_active = false WHERE id = $1 AND is_active = true RETURNING id`

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteUser, id).Scan(&deleted)
	return deleted, err
}
