package community

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/infrastructure/memory"
	"scamshield/pkg/logger"
)

func newBlacklist() *BlacklistService {
	return NewBlacklistService(memory.NewBlacklistStore(), phoneintel.NewNormalizer("NG"), nil, logger.Nop())
}

func TestBlacklistNormalizesKeys(t *testing.T) {
	ctx := context.Background()
	s := newBlacklist()
	require.NoError(t, s.Seed(ctx, []string{"08031234567", ""}))

	for _, phone := range []string{"08031234567", "+2348031234567", "+234 803 123 4567"} {
		listed, err := s.IsBlacklisted(ctx, phone)
		require.NoError(t, err)
		assert.True(t, listed, phone)
	}

	listed, err := s.IsBlacklisted(ctx, "")
	require.NoError(t, err)
	assert.False(t, listed)

	entry, err := s.Get(ctx, "08031234567")
	require.NoError(t, err)
	assert.Equal(t, "system", entry.ReportedBy)
}

func TestReportScammer(t *testing.T) {
	ctx := context.Background()
	s := newBlacklist()

	_, err := s.ReportScammer(ctx, alice, models.ReportScammerRequest{Phone: "123", Reason: "spam"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = s.ReportScammer(ctx, alice, models.ReportScammerRequest{Phone: "08095556666", Reason: "  "})
	assert.True(t, apperrors.IsValidation(err))

	entry, err := s.ReportScammer(ctx, alice, models.ReportScammerRequest{Phone: "08095556666", Reason: "fake POS agent"})
	require.NoError(t, err)
	assert.Equal(t, "+2348095556666", entry.Phone)
	assert.Equal(t, "alice", entry.ReportedBy)
	assert.Equal(t, 1, entry.Reports)

	again, err := s.ReportScammer(ctx, bob, models.ReportScammerRequest{Phone: "+2348095556666", Reason: "same guy"})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Reports)
	assert.Equal(t, "bob", again.ReportedBy)

	entries, total, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, entries, 1)
}

func TestBlacklistGetMissing(t *testing.T) {
	_, err := newBlacklist().Get(context.Background(), "08000000000")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRelated(t *testing.T) {
	ctx := context.Background()
	s := newBlacklist()

	related, err := s.Related(ctx, "08031234567", 5)
	require.NoError(t, err)
	assert.Empty(t, related)

	s.WithGraph(&fakeGraph{related: []string{"+2348099999999"}})
	related, err = s.Related(ctx, "08031234567", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"+2348099999999"}, related)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newBlacklist()
	reporter := models.Actor{UserID: "u-9"}

	_, err := s.ReportScammer(ctx, reporter, models.ReportScammerRequest{Phone: "08051112222", Reason: "fake agent"})
	require.NoError(t, err)

	seeds := []string{"08031234567", "08051112222"}
	require.NoError(t, s.Seed(ctx, seeds))
	require.NoError(t, s.Seed(ctx, seeds))

	seeded, err := s.Get(ctx, "08031234567")
	require.NoError(t, err)
	assert.Equal(t, 1, seeded.Reports)

	reported, err := s.Get(ctx, "08051112222")
	require.NoError(t, err)
	assert.Equal(t, "u-9", reported.ReportedBy)
	assert.Equal(t, 1, reported.Reports)
}
