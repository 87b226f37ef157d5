package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/prueba/login-api/internal/model"
)

// UserRepo provides access to the 'users' table and its role
// associations. All queries run against plain database/sql; the email
// column carries a UNIQUE index which this repository surfaces as
// ErrEmailExists on duplicate-key failures.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,name,picture,social_id,provider,is_enabled,created_at,updated_at"

// FindByEmail fetches a user by exact email match, including assigned
// roles. Emails are stored and compared exactly as supplied.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// FindByID fetches a user by primary key, including assigned roles.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.findOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// FindBySocialID fetches a user by provider name and the identifier
// assigned by that provider.
func (r *UserRepo) FindBySocialID(ctx context.Context, provider, socialID string) (*model.User, error) {
	return r.findOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE provider=? AND social_id=? LIMIT 1",
		provider, socialID)
}

// ExistsByEmail reports whether any user row carries the given email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM users WHERE email=?", email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts the user and its role links inside a transaction and
// returns the stored record. A duplicate email maps to ErrEmailExists
// so callers can treat the race between ExistsByEmail and Create as a
// recoverable conflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, picture, social_id, provider, is_enabled) VALUES (?,?,?,?,?,?,?)",
		u.Email, nullable(u.PasswordHash), u.Name, nullable(u.Picture),
		nullable(u.SocialID), nullable(u.Provider), u.Enabled)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users_roles (id_user, id_role) VALUES (?,?)", id, role.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, uint64(id))
}

// Update persists the mutable profile and linking columns of an
// existing user. Role assignments are not touched here.
func (r *UserRepo) Update(ctx context.Context, u *model.User) (*model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, name=?, picture=?, social_id=?, provider=?, is_enabled=? WHERE id=?",
		u.Email, u.Name, nullable(u.Picture), nullable(u.SocialID),
		nullable(u.Provider), u.Enabled, u.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return r.FindByID(ctx, u.ID)
}

// SetEnabled flips the enabled flag only, leaving every other column
// untouched. Disabling is the soft-delete path.
func (r *UserRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_enabled=? WHERE id=?", enabled, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// The row may exist with the flag already set; distinguish a
		// genuinely missing user from a no-op update.
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=?", id).Scan(&one); err == sql.ErrNoRows {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// List returns one page of users ordered by id plus the total row
// count. Pages are 1-based.
func (r *UserRepo) List(ctx context.Context, page, size int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?",
		size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range users {
		roles, err := r.rolesOf(ctx, users[i].ID)
		if err != nil {
			return nil, 0, err
		}
		users[i].Roles = roles
	}
	return users, total, nil
}

// findOne runs a single-row user query and hydrates the role set.
func (r *UserRepo) findOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Roles, err = r.rolesOf(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// rolesOf loads the roles assigned to a user together with each
// role's permissions in one LEFT JOIN query.
func (r *UserRepo) rolesOf(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.name, p.id, p.name
		   FROM users_roles ur
		   JOIN roles r ON r.id = ur.id_role
		   LEFT JOIN roles_permissions rp ON rp.role_id = r.id
		   LEFT JOIN permissions p ON p.id = rp.permission_id
		  WHERE ur.id_user = ?
		  ORDER BY r.id, p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanUser(s scanner) (*model.User, error) {
	var (
		u        model.User
		hash     sql.NullString
		picture  sql.NullString
		socialID sql.NullString
		provider sql.NullString
	)
	err := s.Scan(&u.ID, &u.Email, &hash, &u.Name, &picture, &socialID,
		&provider, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Picture = picture.String
	u.SocialID = socialID.String
	u.Provider = provider.String
	return &u, nil
}

// collectRoles folds the flattened role/permission join rows back
// into model.Role values.
func collectRoles(rows *sql.Rows) ([]model.Role, error) {
	var roles []model.Role
	for rows.Next() {
		var (
			roleID   uint64
			roleName string
			permID   sql.NullInt64
			permName sql.NullString
		)
		if err := rows.Scan(&roleID, &roleName, &permID, &permName); err != nil {
			return nil, err
		}
		if len(roles) == 0 || roles[len(roles)-1].ID != roleID {
			roles = append(roles, model.Role{ID: roleID, Name: roleName})
		}
		if permID.Valid {
			last := &roles[len(roles)-1]
			last.Permissions = append(last.Permissions,
				model.Permission{ID: uint64(permID.Int64), Name: permName.String})
		}
	}
	return roles, rows.Err()
}

// nullable maps the empty string to NULL so optional columns stay
// NULL instead of storing "".
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a
// UNIQUE index).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
