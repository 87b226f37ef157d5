package model

import "time"

// User represents an application user record as stored in the
// `users` table. Accounts are created either through the registration
// form (in which case PasswordHash is always set) or through a social
// login (in which case PasswordHash is empty and Provider/SocialID
// identify the external account). Users are never physically deleted;
// disabling an account (Enabled=false) is the terminal state.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, stored exactly as supplied.
//  PasswordHash – bcrypt hashed password; empty for social-only accounts.
//  Name         – display name.
//  Picture      – optional profile picture URL.
//  SocialID     – optional unique identifier assigned by the external provider.
//  Provider     – optional provider name ("google", "facebook").
//  Enabled      – whether the account may authenticate.
//  Roles        – roles assigned to the user, loaded via users_roles.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (UNIQUE)
	PasswordHash string    // users.password_hash (nullable)
	Name         string    // users.name
	Picture      string    // users.picture (nullable)
	SocialID     string    // users.social_id (nullable)
	Provider     string    // users.provider (nullable)
	Enabled      bool      // users.is_enabled
	Roles        []Role    // via users_roles join table
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// HasSocialAccount reports whether an external provider identity has
// already been attached to this user.
func (u *User) HasSocialAccount() bool {
	return u.SocialID != ""
}

// Role represents a row in the `roles` table. A role groups a set of
// permissions under a single name (e.g. USER). The default role must
// exist before any user can be created; its absence is a deployment
// defect, not a per-request condition.
//
// Fields:
//  ID          – numeric identifier of the role.
//  Name        – unique role name, stored without the ROLE_ prefix.
//  Permissions – permissions attached via roles_permissions.
type Role struct {
	ID          uint64       // roles.id
	Name        string       // roles.name
	Permissions []Permission // via roles_permissions join table
}

// Permission models an entry in the `permissions` table. Permissions
// are loaded together with their roles but are not evaluated anywhere
// in the authorization path; they exist as an extension point.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique permission name (e.g. READ, WRITE).
type Permission struct {
	ID   uint64 // permissions.id
	Name string // permissions.name
}
