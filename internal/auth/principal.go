package auth

// Principal is the per-request security context: the authenticated
// subject plus its authority set. It is built by the request filter
// from validated token claims, carried only inside the request-scoped
// context and discarded when the request ends. No credential material
// is ever retained on it.
type Principal struct {
	Subject     string
	Authorities []Authority
}

// HasAuthority reports whether the principal holds the authority.
func (p *Principal) HasAuthority(a Authority) bool {
	return p != nil && HasAuthority(p.Authorities, a)
}
