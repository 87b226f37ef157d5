// Package auth implements the authentication core: token issuance and
// validation, credential verification, the social account linker and
// the role-to-authority mapping. It owns the error taxonomy that the
// HTTP layer maps onto status codes.
package auth

import "errors"

// ErrBadCredentials covers both an unknown username and a wrong
// password. The two cases are deliberately indistinguishable to the
// caller so responses and logs cannot be used to enumerate accounts.
var ErrBadCredentials = errors.New("incorrect username or password")

// ErrUserDisabled is returned when the credentials are correct but
// the account has been disabled (soft deleted).
var ErrUserDisabled = errors.New("user account is disabled")

// ErrTokenInvalid is returned for tokens with a bad signature,
// unexpected algorithm or malformed structure.
var ErrTokenInvalid = errors.New("invalid token")

// ErrTokenExpired is returned for well-formed, correctly signed
// tokens whose expiry has passed. The filter treats it the same as
// ErrTokenInvalid but the distinction is kept for diagnostics.
var ErrTokenExpired = errors.New("token expired")

// ErrMissingClaim is returned when a required claim is absent from a
// validated token or from a provider profile.
var ErrMissingClaim = errors.New("required claim is missing")

// ErrRoleNotConfigured signals that the configured default role does
// not exist in the roles table. This is a bootstrap defect: the
// deployment must seed the default role before users can register or
// log in socially.
var ErrRoleNotConfigured = errors.New("default role is not configured, seed the roles table before creating users")

// ErrUnknownProvider signals a social login attempt for a provider
// the service has no claim mapping for. Like ErrRoleNotConfigured it
// is a configuration error, not a user error.
var ErrUnknownProvider = errors.New("unknown identity provider")
