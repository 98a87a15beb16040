package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"adminauth/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing identifier returns nil without error", func() {
		record, err := s.store.Get(ctx, "unknown-id")
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("existing record is returned without mutation", func() {
		fixedTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), fixedTime)
		identifier := Key("sekretaris", "10.0.0.1")

		_, err := s.store.RecordFailure(ctx, identifier)
		s.Require().NoError(err)

		record, err := s.store.Get(ctx, identifier)
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(identifier, record.Identifier)
		s.Equal(1, record.FailureCount)
		s.Equal(fixedTime, record.LastFailureAt)
	})
}

func (s *InMemoryStoreSuite) TestRecordFailure() {
	s.Run("first failure creates record with counter at 1", func() {
		fixedTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), fixedTime)

		record, err := s.store.RecordFailure(ctx, "new-user|10.0.0.1")
		s.Require().NoError(err)
		s.Equal(1, record.FailureCount)
		s.Equal(fixedTime, record.LastFailureAt)
		s.Nil(record.LockedUntil)
	})

	s.Run("subsequent failures increment the counter", func() {
		firstTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		secondTime := firstTime.Add(time.Minute)
		identifier := "repeat-offender|10.0.0.1"

		_, err := s.store.RecordFailure(requestcontext.WithTime(context.Background(), firstTime), identifier)
		s.Require().NoError(err)

		record, err := s.store.RecordFailure(requestcontext.WithTime(context.Background(), secondTime), identifier)
		s.Require().NoError(err)
		s.Equal(2, record.FailureCount)
		s.Equal(secondTime, record.LastFailureAt)
	})

	s.Run("returned record is a copy", func() {
		ctx := context.Background()
		record, err := s.store.RecordFailure(ctx, "copy-check|10.0.0.1")
		s.Require().NoError(err)
		record.FailureCount = 99

		stored, err := s.store.Get(ctx, "copy-check|10.0.0.1")
		s.Require().NoError(err)
		s.Equal(1, stored.FailureCount)
	})
}

func (s *InMemoryStoreSuite) TestClearAndUpdate() {
	ctx := context.Background()

	s.Run("clearing removes the record", func() {
		identifier := "to-be-cleared|10.0.0.1"
		_, err := s.store.RecordFailure(ctx, identifier)
		s.Require().NoError(err)

		s.Require().NoError(s.store.Clear(ctx, identifier))

		record, err := s.store.Get(ctx, identifier)
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("clearing a missing identifier is a no-op", func() {
		s.NoError(s.store.Clear(ctx, "never-seen"))
	})

	s.Run("update persists a lock", func() {
		identifier := "locked-user|10.0.0.1"
		record, err := s.store.RecordFailure(ctx, identifier)
		s.Require().NoError(err)

		until := time.Date(2024, 6, 15, 12, 15, 0, 0, time.UTC)
		record.LockedUntil = &until
		s.Require().NoError(s.store.Update(ctx, record))

		stored, err := s.store.Get(ctx, identifier)
		s.Require().NoError(err)
		s.Require().NotNil(stored.LockedUntil)
		s.Equal(until, *stored.LockedUntil)
	})
}
