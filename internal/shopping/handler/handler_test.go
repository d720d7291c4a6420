package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"listsnap/internal/platform/database"
	"listsnap/internal/platform/metrics"
	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/orchestrator"
	"listsnap/internal/shopping/repository"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/testutil"
)

type stubScanner struct {
	listID id.ListID
	err    error
}

func (s stubScanner) Process(context.Context, id.PhotoID) (id.ListID, error) {
	return s.listID, s.err
}

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	router  http.Handler
	scanner *stubScanner
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.DiscardHandler)

	sqlDB, err := database.OpenSQLite(s.ctx, filepath.Join(s.T().TempDir(), "handler.db"))
	s.Require().NoError(err)
	hub := live.NewHub(live.WithLogger(logger))
	db := store.New(sqlDB, store.SQLite, store.WithLogger(logger), store.WithCommitHook(hub.Notify))
	s.Require().NoError(db.Migrate(s.ctx))
	s.T().Cleanup(func() { db.Close() })

	m := metrics.NewNoop()
	s.scanner = &stubScanner{}
	h := New(
		repository.NewPhotoRepository(db, hub, m, repository.WithLogger(logger)),
		repository.NewListRepository(db, hub, repository.WithLogger(logger)),
		repository.NewItemRepository(db, hub, repository.WithLogger(logger)),
		orchestrator.New(db, orchestrator.WithLogger(logger), orchestrator.WithMetrics(m)),
		s.scanner,
		WithLogger(logger),
		WithMetrics(m),
	)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = testutil.NewRequest(s.T(), method, path)
	} else {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) createList(text string) id.ListID {
	rr := s.do(http.MethodPost, "/lists", map[string]any{"text": text})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[CreatedListResponse](s.T(), rr).ListID
}

func (s *HandlerSuite) listItems(listID id.ListID) []models.Item {
	rr := s.do(http.MethodGet, "/lists/"+listID.String()+"/items", nil)
	testutil.AssertStatusOK(s.T(), rr)
	return *testutil.UnmarshalResponse[[]models.Item](s.T(), rr)
}

func (s *HandlerSuite) TestCreateListFromText() {
	listID := s.createList("- milk\n2) eggs\n* bread")

	items := s.listItems(listID)
	s.Require().Len(items, 3)
	s.Equal("milk", items[0].Text)
	s.Equal("eggs", items[1].Text)
	s.Equal("bread", items[2].Text)

	rr := s.do(http.MethodGet, "/lists", nil)
	testutil.AssertStatusOK(s.T(), rr)
	summaries := *testutil.UnmarshalResponse[[]ListSummaryResponse](s.T(), rr)
	s.Require().Len(summaries, 1)
	s.Equal(3, summaries[0].ItemCount)
	s.Equal(3, summaries[0].UncheckedCount)
}

func (s *HandlerSuite) TestEmptyTextIsUnprocessable() {
	rr := s.do(http.MethodPost, "/lists", map[string]any{"text": "  \n "})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, string(dErrors.CodeNoItemsDetected))

	rr = s.do(http.MethodGet, "/lists", nil)
	s.Equal("[]", strings.TrimSpace(rr.Body.String()))
}

func (s *HandlerSuite) TestCreateListWithUnknownPhotoFails() {
	rr := s.do(http.MethodPost, "/lists", map[string]any{"text": "milk", "photo_id": id.NewPhotoID().String()})
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal(string(dErrors.CodeCreationFailed), errResp.Error)
	s.NotContains(errResp.Description, "FOREIGN KEY")
}

func (s *HandlerSuite) TestMalformedRequests() {
	testutil.AssertStatusAndError(s.T(), s.do(http.MethodGet, "/lists/not-a-uuid", nil), http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	testutil.AssertStatusAndError(s.T(), s.do(http.MethodPost, "/lists", map[string]any{"text": "milk", "photo_id": "nope"}), http.StatusBadRequest, string(dErrors.CodeValidation))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, testutil.NewRawJSONRequest(s.T(), http.MethodPost, "/lists", "{")), http.StatusBadRequest)
	testutil.AssertStatusAndError(s.T(), s.do(http.MethodGet, "/lists/"+id.NewListID().String(), nil), http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *HandlerSuite) TestItemLifecycle() {
	listID := s.createList("milk\neggs")

	rr := s.do(http.MethodPost, "/lists/"+listID.String()+"/items", map[string]any{"text": "bread"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	bread := testutil.UnmarshalResponse[models.Item](s.T(), rr)
	s.Equal(2, bread.Position)

	rr = s.do(http.MethodPost, "/items/"+bread.ID.String()+"/toggle", nil)
	testutil.AssertStatusOK(s.T(), rr)
	s.True(testutil.UnmarshalResponse[models.Item](s.T(), rr).IsChecked)

	rr = s.do(http.MethodPatch, "/items/"+bread.ID.String(), map[string]any{"text": "rye bread", "is_checked": false})
	testutil.AssertStatusOK(s.T(), rr)
	updated := testutil.UnmarshalResponse[models.Item](s.T(), rr)
	s.Equal("rye bread", updated.Text)
	s.False(updated.IsChecked)

	testutil.AssertStatus(s.T(), s.do(http.MethodPatch, "/items/"+bread.ID.String(), map[string]any{}), http.StatusBadRequest)
	testutil.AssertStatus(s.T(), s.do(http.MethodDelete, "/items/"+bread.ID.String(), nil), http.StatusNoContent)
	testutil.AssertStatus(s.T(), s.do(http.MethodDelete, "/items/"+bread.ID.String(), nil), http.StatusNotFound)
}

func (s *HandlerSuite) TestReorderAndRename() {
	listID := s.createList("milk\neggs")
	items := s.listItems(listID)

	rr := s.do(http.MethodPut, "/lists/"+listID.String()+"/items/order",
		map[string]any{"item_ids": []string{items[1].ID.String(), items[0].ID.String()}})
	testutil.AssertStatusOK(s.T(), rr)
	reordered := *testutil.UnmarshalResponse[[]models.Item](s.T(), rr)
	s.Equal("eggs", reordered[0].Text)

	rr = s.do(http.MethodPatch, "/lists/"+listID.String(), map[string]any{"name": "Saturday"})
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "name", "Saturday")
}

func (s *HandlerSuite) TestPhotoLifecycle() {
	rr := s.do(http.MethodPost, "/photos", map[string]any{"file_path": "/photos/a.jpg"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	photoID := testutil.UnmarshalResponse[CreatedPhotoResponse](s.T(), rr).PhotoID

	path := "/photos/" + photoID.String()
	rr = s.do(http.MethodGet, path, nil)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "ocr_status", "PENDING")

	testutil.AssertStatus(s.T(), s.do(http.MethodPut, path+"/ocr-status", map[string]any{"status": "COMPLETED"}), http.StatusConflict)
	testutil.AssertStatus(s.T(), s.do(http.MethodPut, path+"/ocr-status", map[string]any{"status": "DONE"}), http.StatusBadRequest)
	testutil.AssertStatus(s.T(), s.do(http.MethodPut, path+"/ocr-status", map[string]any{"status": "PROCESSING"}), http.StatusNoContent)

	listID := s.createListForPhoto(photoID.String(), "milk")
	testutil.AssertStatus(s.T(), s.do(http.MethodDelete, path, nil), http.StatusNoContent)

	rr = s.do(http.MethodGet, "/lists/"+listID.String(), nil)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "photo_id", nil)
}

func (s *HandlerSuite) createListForPhoto(photoID, text string) id.ListID {
	rr := s.do(http.MethodPost, "/lists", map[string]any{"text": text, "photo_id": photoID})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[CreatedListResponse](s.T(), rr).ListID
}

func (s *HandlerSuite) TestScanDelegatesToScanner() {
	want := id.NewListID()
	s.scanner.listID = want
	rr := s.do(http.MethodPost, "/photos/"+id.NewPhotoID().String()+"/scan", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.Equal(want, testutil.UnmarshalResponse[CreatedListResponse](s.T(), rr).ListID)

	s.scanner.err = dErrors.New(dErrors.CodeUnavailable, "text recognition is not configured")
	rr = s.do(http.MethodPost, "/photos/"+id.NewPhotoID().String()+"/scan", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
}

func (s *HandlerSuite) TestItemStreamPushesCommittedChanges() {
	listID := s.createList("milk\neggs")
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/lists/" + listID.String() + "/items/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	type frame struct {
		Type string        `json:"type"`
		Data []models.Item `json:"data"`
	}
	read := func() frame {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
		var f frame
		s.Require().NoError(conn.ReadJSON(&f))
		return f
	}

	first := read()
	s.Equal("snapshot", first.Type)
	s.Require().Len(first.Data, 2)

	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/items/"+first.Data[0].ID.String()+"/toggle", nil), http.StatusOK)

	next := read()
	s.True(next.Data[0].IsChecked)
}

func (s *HandlerSuite) TestItemStreamForMissingListIs404() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/lists/" + id.NewListID().String() + "/items/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestListsStreamFollowsCreation(t *testing.T) {
	s := new(HandlerSuite)
	s.SetT(t)
	s.SetupTest()
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	testutil.Given(t, "an open lists stream", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/lists/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		read := func(t *testing.T) []ListSummaryResponse {
			t.Helper()
			var f struct {
				Type string                `json:"type"`
				Data []ListSummaryResponse `json:"data"`
			}
			_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			if err := conn.ReadJSON(&f); err != nil {
				t.Fatalf("read: %v", err)
			}
			return f.Data
		}
		if initial := read(t); len(initial) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d lists", len(initial))
		}

		testutil.When(t, "a list is created from text", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/lists", map[string]any{"text": "milk\neggs\nbread"}))
			testutil.AssertStatus(t, rr, http.StatusCreated)

			testutil.Then(t, "the stream pushes the complete list", func(t *testing.T) {
				lists := read(t)
				if len(lists) != 1 || lists[0].ItemCount != 3 {
					t.Fatalf("expected one list with 3 items, got %+v", lists)
				}
			})
		})
	})
}
