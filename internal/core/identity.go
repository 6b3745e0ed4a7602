package core

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh row identifier token.
type IDGenerator func() string

// NewID is the default generator: a random UUID.
func NewID() string {
	return uuid.NewString()
}

// Reconcile assigns stable unique identifiers to an ordered sequence of
// records. Each declared id is trimmed; an id that is empty or already seen
// (in seen or earlier in records) is replaced with a fresh token. All other
// fields are copied verbatim. The input is not modified.
//
// Reconcile is idempotent: applied to rows whose ids are already trimmed and
// unique it returns equal rows.
func Reconcile(records []Row, gen IDGenerator, seen map[string]struct{}) []Row {
	if gen == nil {
		gen = NewID
	}
	if seen == nil {
		seen = make(map[string]struct{}, len(records))
	}

	out := make([]Row, len(records))
	for i, rec := range records {
		row := rec.Clone()

		id := strings.TrimSpace(rec[IDColumn].String())
		if _, dup := seen[id]; id == "" || dup {
			id = freshID(gen, seen)
		}
		seen[id] = struct{}{}

		row[IDColumn] = Text(id)
		out[i] = row
	}
	return out
}

// ReconcileInto reconciles incoming records against the ids already present
// in existing, as done for row insertion.
func ReconcileInto(existing, incoming []Row, gen IDGenerator) []Row {
	return Reconcile(incoming, gen, idSet(existing))
}

// maxGenAttempts bounds retries against a misbehaving generator before
// falling back to NewID.
const maxGenAttempts = 8

// freshID draws tokens until one is unused.
func freshID(gen IDGenerator, seen map[string]struct{}) string {
	for attempt := 0; ; attempt++ {
		if attempt >= maxGenAttempts {
			gen = NewID
		}
		id := strings.TrimSpace(gen())
		if id == "" {
			continue
		}
		if _, taken := seen[id]; !taken {
			return id
		}
	}
}

// idSet collects the ids of rows.
func idSet(rows []Row) map[string]struct{} {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.ID()] = struct{}{}
	}
	return seen
}
