package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dirsync/internal/deltastate"
	"dirsync/internal/directory"
	"dirsync/internal/records"
	"dirsync/internal/sync/config"
	"dirsync/internal/sync/models"
)

type DeltaSyncSuite struct {
	suite.Suite
	dir   *directory.MemoryClient
	store *records.MemoryStore
	delta *deltastate.MemoryStore
	clock time.Time
}

func TestDeltaSyncSuite(t *testing.T) {
	suite.Run(t, new(DeltaSyncSuite))
}

func (s *DeltaSyncSuite) SetupTest() {
	s.dir = directory.NewMemoryClient()
	s.store = records.NewMemory()
	s.delta = deltastate.NewMemory()
	s.clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *DeltaSyncSuite) newService() *Service {
	svc, err := New(config.Default(), s.dir, s.store, s.delta,
		WithClock(func() time.Time { return s.clock }),
	)
	s.Require().NoError(err)
	return svc
}

func (s *DeltaSyncSuite) storedToken() deltastate.Lookup {
	lookup, err := s.delta.Get(context.Background())
	s.Require().NoError(err)
	return lookup
}

func changedEntry(id, email string) models.DeltaEntry {
	return models.DeltaEntry{Record: models.SourceRecord{
		ExternalID:     id,
		PrincipalName:  email,
		DisplayName:    "User " + id,
		Email:          email,
		AccountEnabled: true,
		UserType:       models.UserTypeMember,
	}}
}

func removedEntry(id string) models.DeltaEntry {
	return models.DeltaEntry{
		Record:  models.SourceRecord{ExternalID: id},
		Removed: true,
	}
}

func (s *DeltaSyncSuite) TestEmptyWindowAdvancesToken() {
	s.dir.QueueDeltaPage("", models.DeltaPage{DeltaToken: "tok-1"})

	summary, err := s.newService().SyncDelta(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunCompleted, summary.Status)
	s.Empty(summary.Results)

	stored := s.storedToken()
	s.True(stored.Found)
	s.Equal("tok-1", stored.Token)
	s.Equal(s.clock, stored.SavedAt)
}

func (s *DeltaSyncSuite) TestChangesFlowThroughClassification() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, &models.TargetRecord{
		Email: "known@x.com", ExternalID: "u2", Status: models.StatusActive,
	})
	s.Require().NoError(err)

	entry := changedEntry("u2", "known@x.com")
	entry.Record.JobTitle = "Staff Engineer"
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:    []models.DeltaEntry{changedEntry("u1", "new@x.com"), entry},
		DeltaToken: "tok-1",
	})

	summary, err := s.newService().SyncDelta(ctx)
	s.Require().NoError(err)
	s.Equal(1, summary.Added)
	s.Equal(1, summary.Updated)

	rec, _ := s.store.Get(id)
	s.Equal("Staff Engineer", rec.JobTitle)
}

func (s *DeltaSyncSuite) TestTombstoneDeactivatesLinkedRecord() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, &models.TargetRecord{
		Email: "gone@x.com", ExternalID: "u9", Status: models.StatusActive,
	})
	s.Require().NoError(err)
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:    []models.DeltaEntry{removedEntry("u9")},
		DeltaToken: "tok-1",
	})

	summary, err := s.newService().SyncDelta(ctx)
	s.Require().NoError(err)
	s.Equal(1, summary.Deactivated)
	s.Require().Len(summary.Results, 1)
	s.Equal("u9", summary.Results[0].Identity)

	rec, _ := s.store.Get(id)
	s.Equal(models.StatusInactive, rec.Status)
	s.Equal("tok-1", s.storedToken().Token)
}

func (s *DeltaSyncSuite) TestTombstoneForUnknownRecordSkipped() {
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:    []models.DeltaEntry{removedEntry("never-seen")},
		DeltaToken: "tok-1",
	})

	summary, err := s.newService().SyncDelta(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunCompleted, summary.Status)
	s.Equal(1, summary.Skipped)
	s.Equal(0, summary.Errors)
}

func (s *DeltaSyncSuite) TestTombstoneForInactiveRecordSkipped() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, &models.TargetRecord{
		Email: "past@x.com", ExternalID: "u9", Status: models.StatusInactive,
	})
	s.Require().NoError(err)
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:    []models.DeltaEntry{removedEntry("u9")},
		DeltaToken: "tok-1",
	})

	summary, err := s.newService().SyncDelta(ctx)
	s.Require().NoError(err)
	s.Equal(1, summary.Skipped)
	s.Equal(0, summary.Deactivated)
}

func (s *DeltaSyncSuite) TestResumesFromStoredToken() {
	ctx := context.Background()
	s.Require().NoError(s.delta.Save(ctx, "tok-old", s.clock.Add(-time.Hour)))
	s.dir.QueueDeltaPage("tok-old", models.DeltaPage{
		Entries:    []models.DeltaEntry{changedEntry("u1", "a@x.com")},
		DeltaToken: "tok-new",
	})

	summary, err := s.newService().SyncDelta(ctx)
	s.Require().NoError(err)
	s.Equal(1, summary.Added)
	s.Equal("tok-new", s.storedToken().Token)
}

func (s *DeltaSyncSuite) TestFollowsPagesToExhaustion() {
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:  []models.DeltaEntry{changedEntry("u1", "a@x.com")},
		NextPage: "page-2",
	})
	s.dir.QueueDeltaPage("page-2", models.DeltaPage{
		Entries:    []models.DeltaEntry{changedEntry("u2", "b@x.com")},
		DeltaToken: "tok-final",
	})

	summary, err := s.newService().SyncDelta(context.Background())
	s.Require().NoError(err)
	s.Equal(2, summary.Added)
	s.Equal("tok-final", s.storedToken().Token)
}

func (s *DeltaSyncSuite) TestFeedFailureDoesNotAdvanceWatermark() {
	ctx := context.Background()
	savedAt := s.clock.Add(-time.Hour)
	s.Require().NoError(s.delta.Save(ctx, "tok-old", savedAt))
	s.dir.FailDelta = errors.New("token expired")

	summary, err := s.newService().SyncDelta(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, ErrFullSyncRecommended)
	s.Equal(models.RunFailed, summary.Status)

	stored := s.storedToken()
	s.Equal("tok-old", stored.Token)
	s.Equal(savedAt, stored.SavedAt)
}

func (s *DeltaSyncSuite) TestMidPageFailurePreservesWatermark() {
	// First page applies, second page fails: the old token must survive so
	// the next run replays the whole window.
	ctx := context.Background()
	s.Require().NoError(s.delta.Save(ctx, "tok-old", s.clock.Add(-time.Hour)))
	s.dir.QueueDeltaPage("tok-old", models.DeltaPage{
		Entries:  []models.DeltaEntry{changedEntry("u1", "a@x.com")},
		NextPage: "page-2",
	})
	svc := s.newService()
	s.dir.QueueDeltaPage("page-2", models.DeltaPage{})
	// Sabotage the second fetch only.
	page2Armed := &failSecondDelta{MemoryClient: s.dir}
	svc.dir = page2Armed

	summary, err := svc.SyncDelta(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, ErrFullSyncRecommended)
	s.Equal(1, summary.Added, "results before the failure are preserved")
	s.Equal("tok-old", s.storedToken().Token)
}

func (s *DeltaSyncSuite) TestUnreadableStateStartsFreshWindow() {
	s.delta.FailReads = errors.New("redis down")
	s.dir.QueueDeltaPage("", models.DeltaPage{
		Entries:    []models.DeltaEntry{changedEntry("u1", "a@x.com")},
		DeltaToken: "tok-1",
	})

	summary, err := s.newService().SyncDelta(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunCompleted, summary.Status)
	s.Equal(1, summary.Added)
}

func (s *DeltaSyncSuite) TestTokenSaveFailureDoesNotFailRun() {
	s.delta.FailWrites = errors.New("redis down")
	s.dir.QueueDeltaPage("", models.DeltaPage{DeltaToken: "tok-1"})

	summary, err := s.newService().SyncDelta(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunCompleted, summary.Status)
}

// failSecondDelta lets the first QueryDelta through and fails every one after.
type failSecondDelta struct {
	*directory.MemoryClient
	calls int
}

func (c *failSecondDelta) QueryDelta(ctx context.Context, token string) (models.DeltaPage, error) {
	c.calls++
	if c.calls > 1 {
		return models.DeltaPage{}, errors.New("feed interrupted")
	}
	return c.MemoryClient.QueryDelta(ctx, token)
}
