package community

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/infrastructure/memory"
	"scamshield/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.CommunityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *models.CommunityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeGraph struct {
	recorded []uuid.UUID
	related  []string
}

func (g *fakeGraph) RecordReport(_ context.Context, r *models.CommunityReport) error {
	g.recorded = append(g.recorded, r.ID)
	return nil
}

func (g *fakeGraph) RelatedNumbers(context.Context, string, int) ([]string, error) {
	return g.related, nil
}

type fixture struct {
	workflow  *Workflow
	ledger    *Ledger
	blacklist *BlacklistService
	reports   *memory.ReportStore
	events    *recordingPublisher
}

// flakyBlacklist fails the first failures upserts
type flakyBlacklist struct {
	BlacklistStore
	mu       sync.Mutex
	failures int
}

func (b *flakyBlacklist) Upsert(ctx context.Context, entry models.BlacklistEntry) (*models.BlacklistEntry, error) {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
		b.mu.Unlock()
		return nil, errors.New("blacklist unavailable")
	}
	b.mu.Unlock()
	return b.BlacklistStore.Upsert(ctx, entry)
}

// flakyReputation fails the credit with index failAt, counting from zero
type flakyReputation struct {
	ReputationStore
	mu     sync.Mutex
	calls  int
	failAt int
}

func (r *flakyReputation) Credit(ctx context.Context, c models.ReputationCredit) (*models.ReputationRecord, error) {
	r.mu.Lock()
	call := r.calls
	r.calls++
	r.mu.Unlock()
	if call == r.failAt {
		return nil, errors.New("ledger unavailable")
	}
	return r.ReputationStore.Credit(ctx, c)
}

func newFixture() *fixture {
	return newFixtureWith(memory.NewBlacklistStore(), memory.NewReputationStore())
}

func newFixtureWith(blacklistStore BlacklistStore, reputationStore ReputationStore) *fixture {
	log := logger.Nop()
	events := &recordingPublisher{}
	reports := memory.NewReportStore()
	ledger := NewLedger(reputationStore, DefaultLeaderboardLimits(), log)
	blacklist := NewBlacklistService(blacklistStore, phoneintel.NewNormalizer("NG"), events, log)
	return &fixture{
		workflow:  NewWorkflow(reports, ledger, blacklist, events, DefaultRewards(), log),
		ledger:    ledger,
		blacklist: blacklist,
		reports:   reports,
		events:    events,
	}
}

var (
	alice  = models.Actor{UserID: "alice", Name: "Alice", Role: models.RoleUser}
	bob    = models.Actor{UserID: "bob", Name: "Bob", Role: models.RoleUser}
	expert = models.Actor{UserID: "eve", Name: "Eve", Role: models.RoleExpert}
	admin  = models.Actor{UserID: "root", Name: "Root", Role: models.RoleAdmin}
)

func validRequest() models.SubmitReportRequest {
	return models.SubmitReportRequest{
		PhoneNumber: "08031112222",
		Message:     "Send your BVN to claim the grant",
		ScamType:    "grant",
		Description: "Fake federal grant",
	}
}

func (f *fixture) submit(t *testing.T, actor models.Actor) *models.CommunityReport {
	t.Helper()
	r, err := f.workflow.Submit(context.Background(), actor, validRequest())
	require.NoError(t, err)
	return r
}

func (f *fixture) points(t *testing.T, userID string) *models.ReputationProgress {
	t.Helper()
	p, err := f.ledger.Get(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func TestSubmit(t *testing.T) {
	t.Run("creates a pending report and credits the submitter", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		assert.Equal(t, models.ReportStatusPending, r.Status)
		assert.Equal(t, "alice", r.SubmitterUserID)
		assert.Equal(t, "Alice", r.SubmitterName)

		rep := f.points(t, "alice")
		assert.Equal(t, 10, rep.Points)
		assert.Equal(t, 1, rep.ReportsSubmitted)
		assert.Equal(t, []models.EventType{models.EventReportSubmitted}, f.events.types())
	})

	t.Run("identical submissions are credited twice", func(t *testing.T) {
		f := newFixture()
		first := f.submit(t, alice)
		second := f.submit(t, alice)

		assert.NotEqual(t, first.ID, second.ID)
		rep := f.points(t, "alice")
		assert.Equal(t, 20, rep.Points)
		assert.Equal(t, 2, rep.ReportsSubmitted)
		assert.Equal(t, models.LevelActive, rep.Level)
	})

	tests := []struct {
		name   string
		mutate func(*models.SubmitReportRequest)
		code   string
	}{
		{"missing phone", func(r *models.SubmitReportRequest) { r.PhoneNumber = " " }, "MISSING_FIELDS"},
		{"missing message", func(r *models.SubmitReportRequest) { r.Message = "" }, "MISSING_FIELDS"},
		{"missing scam type", func(r *models.SubmitReportRequest) { r.ScamType = "" }, "MISSING_FIELDS"},
		{"malformed phone", func(r *models.SubmitReportRequest) { r.PhoneNumber = "12ab" }, "INVALID_PHONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			tt.mutate(&req)

			_, err := f.workflow.Submit(context.Background(), alice, req)
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, 0, f.points(t, "alice").Points)
		})
	}
}

func TestSubmitProjectsIntoGraph(t *testing.T) {
	f := newFixture()
	g := &fakeGraph{}
	f.workflow.WithGraph(g)

	r := f.submit(t, alice)
	assert.Equal(t, []uuid.UUID{r.ID}, g.recorded)
}

func TestVote(t *testing.T) {
	ctx := context.Background()

	t.Run("changing direction moves the vote", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		tally, err := f.workflow.Vote(ctx, bob, r.ID, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteTally{Upvotes: 1}, *tally)

		tally, err = f.workflow.Vote(ctx, bob, r.ID, models.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, models.VoteTally{Upvotes: 0, Downvotes: 1}, *tally)
	})

	t.Run("repeating a direction leaves the counters alone", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		_, err := f.workflow.Vote(ctx, alice, r.ID, models.VoteUp)
		require.NoError(t, err)
		before, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)

		tally, err := f.workflow.Vote(ctx, alice, r.ID, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteTally{Upvotes: 1}, *tally)

		after, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("votes are accepted after resolution", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)
		_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusRejected, "")
		require.NoError(t, err)

		tally, err := f.workflow.Vote(ctx, bob, r.ID, models.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Downvotes)
	})

	t.Run("invalid direction", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)
		_, err := f.workflow.Vote(ctx, bob, r.ID, models.VoteDirection("sideways"))
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown report", func(t *testing.T) {
		f := newFixture()
		_, err := f.workflow.Vote(ctx, bob, uuid.New(), models.VoteUp)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("concurrent voters are all counted", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				dir := models.VoteUp
				if i%4 == 0 {
					dir = models.VoteDown
				}
				_, err := f.workflow.Vote(ctx, models.Actor{UserID: uuid.NewString()}, r.ID, dir)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, got.Upvotes)
		assert.Equal(t, 10, got.Downvotes)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("verified promotes and credits", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		got, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "confirmed by bank")
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusVerified, got.Status)
		require.NotNil(t, got.VerifiedBy)
		assert.Equal(t, "eve", *got.VerifiedBy)
		require.NotNil(t, got.VerificationNotes)
		assert.Equal(t, "confirmed by bank", *got.VerificationNotes)
		assert.NotNil(t, got.VerificationDate)

		submitter := f.points(t, "alice")
		assert.Equal(t, 60, submitter.Points)
		assert.Equal(t, 1, submitter.ReportsVerified)
		assert.Equal(t, models.LevelContributor, submitter.Level)

		verifier := f.points(t, "eve")
		assert.Equal(t, 25, verifier.Points)
		assert.Equal(t, 0, verifier.ReportsVerified)

		listed, err := f.blacklist.IsBlacklisted(ctx, "+2348031112222")
		require.NoError(t, err)
		assert.True(t, listed)

		assert.Equal(t, []models.EventType{
			models.EventReportSubmitted,
			models.EventBlacklistUpdated,
			models.EventReportVerified,
		}, f.events.types())
	})

	t.Run("second verify conflicts and changes nothing", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
		require.NoError(t, err)

		_, err = f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusRejected, "changed my mind")
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		_, err = f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
		assert.True(t, apperrors.IsConflict(err))

		got, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusVerified, got.Status)
		assert.Equal(t, "eve", *got.VerifiedBy)

		assert.Equal(t, 60, f.points(t, "alice").Points)
		assert.Equal(t, 25, f.points(t, "eve").Points)
		assert.Equal(t, 0, f.points(t, "root").Points)

		entry, err := f.blacklist.Get(ctx, "08031112222")
		require.NoError(t, err)
		assert.Equal(t, 1, entry.Reports)
	})

	t.Run("concurrent verifies resolve exactly once", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case apperrors.IsConflict(err):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 9, conflicts)
		assert.Equal(t, 25, f.points(t, "eve").Points)
	})

	t.Run("failed promotion is resumed by the next verify", func(t *testing.T) {
		f := newFixtureWith(&flakyBlacklist{BlacklistStore: memory.NewBlacklistStore(), failures: 1}, memory.NewReputationStore())
		r := f.submit(t, alice)

		_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "confirmed")
		require.Error(t, err)
		assert.False(t, apperrors.IsConflict(err))

		pending, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusVerified, pending.Status)
		assert.Equal(t, models.VerificationEffects, pending.PendingEffects)
		assert.Nil(t, pending.EffectsClaimedAt)
		assert.Equal(t, 10, f.points(t, "alice").Points)

		got, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusVerified, got.Status)
		assert.Empty(t, got.PendingEffects)
		assert.Equal(t, "eve", *got.VerifiedBy)

		listed, err := f.blacklist.IsBlacklisted(ctx, "08031112222")
		require.NoError(t, err)
		assert.True(t, listed)

		submitter := f.points(t, "alice")
		assert.Equal(t, 60, submitter.Points)
		assert.Equal(t, 1, submitter.ReportsVerified)
		assert.Equal(t, 25, f.points(t, "eve").Points)

		_, err = f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("resume skips completed effects and credits the original verifier", func(t *testing.T) {
		// credit 0 is the submit reward, credit 1 the verified submitter reward
		f := newFixtureWith(memory.NewBlacklistStore(), &flakyReputation{ReputationStore: memory.NewReputationStore(), failAt: 1})
		r := f.submit(t, alice)

		_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusVerified, "")
		require.Error(t, err)

		pending, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.VerificationEffect{models.EffectCreditSubmitter, models.EffectCreditVerifier}, pending.PendingEffects)

		_, err = f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusRejected, "")
		assert.True(t, apperrors.IsConflict(err))

		_, err = f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusVerified, "")
		require.NoError(t, err)

		entry, err := f.blacklist.Get(ctx, "08031112222")
		require.NoError(t, err)
		assert.Equal(t, 1, entry.Reports)
		assert.Equal(t, 60, f.points(t, "alice").Points)
		assert.Equal(t, 25, f.points(t, "eve").Points)
		assert.Equal(t, 0, f.points(t, "root").Points)
	})

	t.Run("claimed effects conflict until the lease expires", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)
		start := time.Now()
		f.workflow.now = func() time.Time { return start }

		// a verifier that stopped right after resolving
		_, err := f.reports.Update(ctx, r.ID, func(rep *models.CommunityReport) error {
			rep.Resolve(models.ReportStatusVerified, "eve", "", start)
			return nil
		})
		require.NoError(t, err)

		_, err = f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusVerified, "")
		assert.True(t, apperrors.IsConflict(err))

		f.workflow.now = func() time.Time { return start.Add(effectsLease + time.Second) }
		got, err := f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusVerified, "")
		require.NoError(t, err)
		assert.Empty(t, got.PendingEffects)
		assert.Equal(t, 60, f.points(t, "alice").Points)
		assert.Equal(t, 25, f.points(t, "eve").Points)
	})

	t.Run("rejected records verifier only", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		got, err := f.workflow.Verify(ctx, admin, r.ID, models.ReportStatusRejected, "legit lender")
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusRejected, got.Status)
		assert.Equal(t, "root", *got.VerifiedBy)

		assert.Equal(t, 10, f.points(t, "alice").Points)
		assert.Equal(t, 0, f.points(t, "root").Points)
		listed, err := f.blacklist.IsBlacklisted(ctx, "08031112222")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("plain users cannot verify", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)

		_, err := f.workflow.Verify(ctx, bob, r.ID, models.ReportStatusVerified, "")
		assert.True(t, apperrors.IsPermission(err))

		got, err := f.workflow.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusPending, got.Status)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		f := newFixture()
		r := f.submit(t, alice)
		_, err := f.workflow.Verify(ctx, expert, r.ID, models.ReportStatusPending, "")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown report", func(t *testing.T) {
		f := newFixture()
		_, err := f.workflow.Verify(ctx, expert, uuid.New(), models.ReportStatusVerified, "")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("broker down")

	r, err := f.workflow.Submit(context.Background(), alice, validRequest())
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.submit(t, alice)
	f.submit(t, alice)
	mine := f.submit(t, bob)

	reports, total, err := f.workflow.List(ctx, models.ReportFilter{SubmitterUserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, mine.ID, reports[0].ID)

	_, total, err = f.workflow.List(ctx, models.ReportFilter{Status: models.ReportStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, _, err = f.workflow.List(ctx, models.ReportFilter{Status: "archived"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.workflow.Get(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
