package scan

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listsnap/internal/ocr"
	"listsnap/internal/platform/database"
	"listsnap/internal/platform/metrics"
	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/orchestrator"
	"listsnap/internal/shopping/repository"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/circuit"
)

type fakeEngine struct {
	rec   ocr.Recognition
	err   error
	calls int
}

func (f *fakeEngine) Recognize(context.Context, string) (ocr.Recognition, error) {
	f.calls++
	return f.rec, f.err
}

type ScanSuite struct {
	suite.Suite
	ctx    context.Context
	db     *store.DB
	photos *repository.PhotoRepository
	items  *repository.ItemRepository
	orch   *orchestrator.Orchestrator
	engine *fakeEngine
	proc   *Processor
}

func TestScanSuite(t *testing.T) {
	suite.Run(t, new(ScanSuite))
}

func (s *ScanSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.DiscardHandler)

	sqlDB, err := database.OpenSQLite(s.ctx, filepath.Join(s.T().TempDir(), "scan.db"))
	s.Require().NoError(err)
	hub := live.NewHub(live.WithLogger(logger))
	s.db = store.New(sqlDB, store.SQLite, store.WithLogger(logger), store.WithCommitHook(hub.Notify))
	s.Require().NoError(s.db.Migrate(s.ctx))
	s.T().Cleanup(func() { s.db.Close() })

	s.photos = repository.NewPhotoRepository(s.db, hub, metrics.NewNoop(), repository.WithLogger(logger))
	s.items = repository.NewItemRepository(s.db, hub, repository.WithLogger(logger))
	s.orch = orchestrator.New(s.db, orchestrator.WithLogger(logger))
	s.engine = &fakeEngine{}
	s.proc = New(s.photos, s.engine, s.orch, WithLogger(logger))
}

func (s *ScanSuite) newPhoto() id.PhotoID {
	photo, err := models.NewPhoto("/photos/list.jpg", time.Now())
	s.Require().NoError(err)
	photoID, err := s.photos.Insert(s.ctx, photo)
	s.Require().NoError(err)
	return photoID
}

func (s *ScanSuite) status(photoID id.PhotoID) models.OCRStatus {
	photo, err := s.photos.FindByID(s.ctx, photoID)
	s.Require().NoError(err)
	s.Require().NotNil(photo)
	return photo.OCRStatus
}

func (s *ScanSuite) TestSuccessfulScanCreatesLinkedList() {
	photoID := s.newPhoto()
	s.engine.rec = ocr.Recognition{Text: "- milk\n- eggs", Status: models.OCRCompleted}

	listID, err := s.proc.Process(s.ctx, photoID)
	s.Require().NoError(err)
	s.Equal(models.OCRCompleted, s.status(photoID))

	items, err := s.items.ListByList(s.ctx, listID)
	s.Require().NoError(err)
	s.Len(items, 2)

	list, err := s.db.Lists().FindByID(s.ctx, listID)
	s.Require().NoError(err)
	s.Equal(photoID, *list.PhotoID)
}

func (s *ScanSuite) TestEngineErrorMarksFailedAndAllowsRetry() {
	photoID := s.newPhoto()
	s.engine.err = errors.New("quota exceeded")

	_, err := s.proc.Process(s.ctx, photoID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(models.OCRFailed, s.status(photoID))

	s.engine.err = nil
	s.engine.rec = ocr.Recognition{Text: "bread", Status: models.OCRCompleted}
	_, err = s.proc.Process(s.ctx, photoID)
	s.Require().NoError(err)
	s.Equal(models.OCRCompleted, s.status(photoID))
}

func (s *ScanSuite) TestTextWithoutItemsMarksFailed() {
	photoID := s.newPhoto()
	s.engine.rec = ocr.Recognition{Text: "-\n*", Status: models.OCRCompleted}

	_, err := s.proc.Process(s.ctx, photoID)
	s.True(dErrors.HasCode(err, dErrors.CodeNoItemsDetected))
	s.Equal(models.OCRFailed, s.status(photoID))

	lists, err := s.db.Lists().ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(lists)
}

func (s *ScanSuite) TestCompletedPhotoCannotBeRescanned() {
	photoID := s.newPhoto()
	s.engine.rec = ocr.Recognition{Text: "milk", Status: models.OCRCompleted}
	_, err := s.proc.Process(s.ctx, photoID)
	s.Require().NoError(err)

	_, err = s.proc.Process(s.ctx, photoID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Equal(1, s.engine.calls)
}

func (s *ScanSuite) TestMissingPhoto() {
	_, err := s.proc.Process(s.ctx, id.NewPhotoID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Zero(s.engine.calls)
}

func (s *ScanSuite) TestDisabledEngine() {
	photoID := s.newPhoto()
	proc := New(s.photos, ocr.Disabled{}, s.orch, WithLogger(slog.New(slog.DiscardHandler)))

	_, err := proc.Process(s.ctx, photoID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ScanSuite) TestOpenCircuitSkipsEngine() {
	s.engine.err = errors.New("deadline exceeded upstream")
	guarded := ocr.NewGuarded(s.engine, circuit.New("test", circuit.WithFailureThreshold(1)), nil)
	proc := New(s.photos, guarded, s.orch, WithLogger(slog.New(slog.DiscardHandler)))

	first := s.newPhoto()
	_, err := proc.Process(s.ctx, first)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	second := s.newPhoto()
	_, err = proc.Process(s.ctx, second)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.ErrorIs(err, ocr.ErrCircuitOpen)
	s.Equal(1, s.engine.calls)
	s.Equal(models.OCRFailed, s.status(second))
}

// gatedEngine holds every call until release is closed.
type gatedEngine struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedEngine) Recognize(ctx context.Context, _ string) (ocr.Recognition, error) {
	g.calls.Add(1)
	g.entered <- struct{}{}
	<-g.release
	return ocr.Recognition{Text: "milk\neggs", Status: models.OCRCompleted}, nil
}

func (s *ScanSuite) TestPhotoInRecognitionCannotBeClaimedAgain() {
	photoID := s.newPhoto()
	engine := &gatedEngine{entered: make(chan struct{}, 2), release: make(chan struct{})}
	proc := New(s.photos, engine, s.orch, WithLogger(slog.New(slog.DiscardHandler)))

	type result struct {
		listID id.ListID
		err    error
	}
	first := make(chan result, 1)
	go func() {
		listID, err := proc.Process(s.ctx, photoID)
		first <- result{listID, err}
	}()
	<-engine.entered
	s.Equal(models.OCRProcessing, s.status(photoID))

	_, err := proc.Process(s.ctx, photoID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "got %v", err)
	s.Equal(models.OCRProcessing, s.status(photoID), "rejected claim must not touch the photo")

	close(engine.release)
	res := <-first
	s.Require().NoError(res.err)
	s.EqualValues(1, engine.calls.Load())
	s.Equal(models.OCRCompleted, s.status(photoID))

	lists, err := s.db.Lists().ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(lists, 1)
}

func (s *ScanSuite) TestConcurrentScansCreateOneList() {
	photoID := s.newPhoto()
	engine := &gatedEngine{entered: make(chan struct{}, 4), release: make(chan struct{})}
	close(engine.release)
	proc := New(s.photos, engine, s.orch, WithLogger(slog.New(slog.DiscardHandler)))

	const scanners = 4
	errs := make([]error, scanners)
	var wg sync.WaitGroup
	for i := range scanners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = proc.Process(s.ctx, photoID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "got %v", err)
	}
	s.Equal(1, succeeded)
	s.EqualValues(1, engine.calls.Load())

	lists, err := s.db.Lists().ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(lists, 1)
}
