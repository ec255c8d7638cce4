package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukemunn/edgebot/internal/database"
)

func newTestResolver(t *testing.T) (*Resolver, *database.Database) {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)
	return NewResolver(db), db
}

func TestRelocationCodesShareFranchise(t *testing.T) {
	r, _ := newTestResolver(t)

	sea, err := r.ResolveFranchise("nba", "SEA")
	require.NoError(t, err)
	okc, err := r.ResolveFranchise("nba", "OKC")
	require.NoError(t, err)
	assert.Equal(t, sea, okc, "SuperSonics and Thunder are one lineage")

	oak, err := r.ResolveFranchise("nfl", "OAK")
	require.NoError(t, err)
	lv, err := r.ResolveFranchise("nfl", "LV")
	require.NoError(t, err)
	assert.Equal(t, oak, lv)

	// Distinct lineages stay distinct
	bos, err := r.ResolveFranchise("nba", "BOS")
	require.NoError(t, err)
	assert.NotEqual(t, sea, bos)
}

func TestSameAbbrevDifferentSport(t *testing.T) {
	r, _ := newTestResolver(t)

	nbaLAL, err := r.ResolveFranchise("nba", "LAL")
	require.NoError(t, err)
	nhlBOS, err := r.ResolveFranchise("nhl", "BOS")
	require.NoError(t, err)
	nbaBOS, err := r.ResolveFranchise("nba", "BOS")
	require.NoError(t, err)

	assert.NotEqual(t, nhlBOS, nbaBOS)
	assert.NotEqual(t, nbaLAL, nbaBOS)
}

func TestUnknownAbbrev(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.ResolveFranchise("nba", "XXX")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAbbrev)

	_, err = r.ResolveFranchise("cricket", "BOS")
	assert.ErrorIs(t, err, ErrUnknownAbbrev)
}

func TestResolverSurvivesRestart(t *testing.T) {
	r1, db := newTestResolver(t)
	first, err := r1.ResolveFranchise("nba", "SEA")
	require.NoError(t, err)

	// Fresh per-run resolver over the same database lands on the same row
	r2 := NewResolver(db)
	second, err := r2.ResolveFranchise("nba", "OKC")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveOrCreateTeamIsStable(t *testing.T) {
	r, _ := newTestResolver(t)

	fid, err := r.ResolveFranchise("nba", "OKC")
	require.NoError(t, err)

	a, err := r.ResolveOrCreateTeam("nba", "okc-thunder", "OKC", "Oklahoma City Thunder", fid)
	require.NoError(t, err)
	b, err := r.ResolveOrCreateTeam("nba", "okc-thunder", "OKC", "Oklahoma City Thunder", fid)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPairKeyCommutative(t *testing.T) {
	assert.Equal(t, PairKey(7, 3), PairKey(3, 7))
	assert.Equal(t, "3-7", PairKey(7, 3))
	assert.Equal(t, "5-5", PairKey(5, 5))
}
