package repository

import (
	"context"
	"database/sql"

	"github.com/prueba/login-api/internal/model"
)

// RoleRepo provides access to the 'roles' table. Its main consumer is
// user creation, which attaches the configured default role to every
// new account.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// FindByName fetches a role by its unique name, including attached
// permissions. Returns ErrRoleNotFound when no such role exists.
func (r *RoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	role := model.Role{}
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE name=? LIMIT 1", name).
		Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id, p.name
		   FROM roles_permissions rp
		   JOIN permissions p ON p.id = rp.permission_id
		  WHERE rp.role_id = ?
		  ORDER BY p.id`, role.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		role.Permissions = append(role.Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &role, nil
}
