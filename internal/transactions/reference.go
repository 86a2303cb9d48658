package transactions

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// newReference builds a TRX-YYYYMMDD-RRRR reference for callers that did not
// supply one. The random suffix keeps same-day references distinguishable;
// uniqueness is not enforced here.
func newReference(at time.Time) string {
	return fmt.Sprintf("TRX-%s-%04d", at.Format("20060102"), rand.IntN(10000))
}
