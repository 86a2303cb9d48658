// Package roles defines the fixed organization role hierarchy and the
// comparison primitives every permission check in the system goes through.
package roles

// Role enumerates organization membership roles.
type Role string

const (
	Owner     Role = "OWNER"
	Admin     Role = "ADMIN"
	Treasurer Role = "TREASURER"
	Member    Role = "MEMBER"
	Viewer    Role = "VIEWER"
)

// rank is the single source of truth for the role total order.
// A higher rank includes every lower rank's permissions, but callers
// must consult it explicitly; nothing cascades automatically.
var rank = map[Role]int{
	Owner:     5,
	Admin:     4,
	Treasurer: 3,
	Member:    2,
	Viewer:    1,
}

// Rank returns the role's position in the hierarchy. Unknown roles rank zero,
// below every valid role.
func Rank(r Role) int {
	return rank[r]
}

// Valid reports whether r is one of the five declared roles.
func Valid(r Role) bool {
	_, ok := rank[r]
	return ok
}

// OutranksOrEquals reports whether a sits at or above b in the hierarchy.
func OutranksOrEquals(a, b Role) bool {
	return rank[a] >= rank[b]
}

// Outranks reports whether a sits strictly above b in the hierarchy.
func Outranks(a, b Role) bool {
	return rank[a] > rank[b]
}

// Canonical allow-lists shared across services. Handlers and services must
// reference these instead of spelling out role sets ad hoc.
var (
	// OwnerOnly gates operations that affect the organization itself.
	OwnerOnly = []Role{Owner}
	// ManageFinances gates account and ledger administration.
	ManageFinances = []Role{Owner, Admin, Treasurer}
	// ManageAccounts gates activating and deactivating accounts.
	ManageAccounts = []Role{Owner, Admin}
	// ManageMembers gates invites, role changes and revocations.
	ManageMembers = []Role{Owner, Admin}
	// RecordTransactions is everyone except viewers.
	RecordTransactions = []Role{Owner, Admin, Treasurer, Member}
	// VoidTransactions is stricter than recording them.
	VoidTransactions = []Role{Owner, Admin}
)
