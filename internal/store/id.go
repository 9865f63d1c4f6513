package store

import (
	"strings"

	"github.com/google/uuid"
)

// idLength is the number of hex characters kept from a random UUID.
const idLength = 12

// IDGenerator produces a new random identifier.
type IDGenerator func() string

// NewID returns a short random lowercase alphanumeric identifier.
// Only uniqueness among stored keys is enforced, by the store itself.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}
