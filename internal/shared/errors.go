package shared

import "errors"

var (
	// ErrNotAMember indicates the actor has no active membership in the organization.
	ErrNotAMember = errors.New("not a member of this organization")
	// ErrInsufficientRole indicates the actor's role does not permit the operation.
	ErrInsufficientRole = errors.New("insufficient permissions")
	// ErrLastOwner indicates the operation would leave the organization without an active owner.
	ErrLastOwner = errors.New("organization must retain at least one active owner")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token header is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
