//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	"listsnap/pkg/platform/sentinel"
	"listsnap/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *store.DB
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.db = store.New(s.postgres.DB, store.Postgres)
	s.Require().NoError(s.db.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "items", "lists", "photos")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCascadeAndNullify() {
	ctx := context.Background()
	now := time.Now()

	photoID, err := s.db.Photos().Insert(ctx, &models.Photo{FilePath: "/p.jpg", Timestamp: now})
	s.Require().NoError(err)
	listID, err := s.db.Lists().Insert(ctx, models.NewShoppingList(&photoID, now))
	s.Require().NoError(err)
	itemIDs, err := s.db.Items().InsertMany(ctx, []*models.Item{
		{ListID: listID, Text: "milk", Position: 0},
		{ListID: listID, Text: "eggs", Position: 1},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.db.Photos().Delete(ctx, photoID))
	list, err := s.db.Lists().FindByID(ctx, listID)
	s.Require().NoError(err)
	s.Nil(list.PhotoID)

	s.Require().NoError(s.db.Lists().Delete(ctx, listID))
	_, err = s.db.Items().FindByID(ctx, itemIDs[0])
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConstraintViolationsMapToConflict() {
	ctx := context.Background()
	_, err := s.db.Items().Insert(ctx, &models.Item{ListID: id.NewListID(), Text: "milk"})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSummariesCountCheckedItems() {
	ctx := context.Background()
	listID, err := s.db.Lists().Insert(ctx, models.NewShoppingList(nil, time.Now()))
	s.Require().NoError(err)
	itemIDs, err := s.db.Items().InsertMany(ctx, []*models.Item{
		{ListID: listID, Text: "milk", Position: 0},
		{ListID: listID, Text: "eggs", Position: 1},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.db.Items().SetChecked(ctx, itemIDs[0], true))

	summaries, err := s.db.Lists().Summaries(ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 1)
	s.Equal(2, summaries[0].ItemCount)
	s.Equal(1, summaries[0].CheckedCount)
}

func (s *PostgresStoreSuite) TestTransitionOCRStatusIsConditional() {
	ctx := context.Background()
	photoID, err := s.db.Photos().Insert(ctx, &models.Photo{FilePath: "/p.jpg", Timestamp: time.Now()})
	s.Require().NoError(err)

	claim := func() error {
		return s.db.Photos().TransitionOCRStatus(ctx, photoID, models.OCRProcessing, models.OCRPending, models.OCRFailed)
	}
	s.Require().NoError(claim())
	s.ErrorIs(claim(), sentinel.ErrInvalidState)
	s.ErrorIs(s.db.Photos().TransitionOCRStatus(ctx, id.NewPhotoID(), models.OCRProcessing, models.OCRPending), sentinel.ErrNotFound)
}
