// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors. For example,
// ErrEmailExists signals a violation of the UNIQUE index on
// users.email, which the social login flow uses to recover from
// concurrent first-time logins with the same address.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup by email, id or
// social identifier matches no row. Handlers translate this into an
// HTTP 404, the credential authenticator into a generic bad-credentials
// failure.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when an insert or update collides with
// the UNIQUE index on users.email. Handlers translate this into an
// HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrRoleNotFound is returned when a role lookup by name matches no
// row. When the missing role is the configured default role this is a
// bootstrap defect: the deployment forgot to seed the roles table.
var ErrRoleNotFound = errors.New("role not found")
