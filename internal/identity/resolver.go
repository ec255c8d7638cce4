package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lukemunn/edgebot/internal/database"
)

// ErrUnknownAbbrev means the provider code has no canonical franchise
// mapping. Callers skip the record; identity is a hard prerequisite for
// sample storage.
var ErrUnknownAbbrev = errors.New("unknown team abbreviation")

// Resolver maps provider team codes to franchise/team ids. Lookups are
// cached for the lifetime of one ingestion run only; construct a fresh
// Resolver per run so identities never leak across batches. Safe for the
// run's concurrent date workers.
type Resolver struct {
	mu         sync.Mutex
	db         *database.Database
	franchises map[string]uint // sport|rawAbbrev -> franchise id
	teams      map[string]uint // sport|providerKey -> team id
}

// NewResolver creates a resolver with empty per-run caches.
func NewResolver(db *database.Database) *Resolver {
	return &Resolver{
		db:         db,
		franchises: make(map[string]uint),
		teams:      make(map[string]uint),
	}
}

// ResolveFranchise returns the stable franchise id for a raw provider
// abbreviation. Two historical codes for the same lineage (SEA and OKC)
// resolve to the same id. Creates the franchise on first sighting.
func (r *Resolver) ResolveFranchise(sport, rawAbbrev string) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sport + "|" + rawAbbrev
	if id, ok := r.franchises[key]; ok {
		return id, nil
	}

	name := CanonicalName(sport, rawAbbrev)
	if name == "" {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownAbbrev, sport, rawAbbrev)
	}

	id, err := r.db.EnsureFranchise(sport, name)
	if err != nil {
		return 0, err
	}
	r.franchises[key] = id
	return id, nil
}

// ResolveOrCreateTeam returns the team id for a provider key, creating the
// record lazily. The franchise must already be resolved.
func (r *Resolver) ResolveOrCreateTeam(sport, providerKey, abbrev, name string, franchiseID uint) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sport + "|" + providerKey
	if id, ok := r.teams[key]; ok {
		return id, nil
	}

	team := database.Team{
		Sport:       sport,
		ProviderKey: providerKey,
		Abbrev:      abbrev,
		Name:        name,
		FranchiseID: franchiseID,
	}
	id, err := r.db.EnsureTeam(&team)
	if err != nil {
		return 0, err
	}
	r.teams[key] = id
	return id, nil
}

// PairKey builds the canonical unordered pair key for two ids. Commutative:
// PairKey(a, b) == PairKey(b, a).
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}
