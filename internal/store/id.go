package store

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// KeywordIDLength matches the VARCHAR(11) keyword_id column.
const KeywordIDLength = 11

// NewKeywordID returns an 11 character URL-safe id built from the first eight
// bytes of a random UUID. Collisions are possible; the unique index catches them.
func NewKeywordID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:8])
}
