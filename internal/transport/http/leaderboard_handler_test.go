package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"engageboard/internal/archive"
	"engageboard/internal/dataprocessing"
	apierrors "engageboard/internal/errors"
	"engageboard/internal/services"
	"engageboard/internal/shared/testutil"
	"engageboard/pkg/contracts/domain"
)

// MockLeaderboardService is a mock implementation of LeaderboardServiceInterface
type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) DetectReader(name string, r io.Reader, kind domain.TableKind) (*services.Detection, error) {
	args := m.Called(name, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Detection), args.Error(1)
}

func (m *MockLeaderboardService) Generate(ctx context.Context, req services.GenerateRequest) (*services.Run, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Run), args.Error(1)
}

func (m *MockLeaderboardService) Get(ctx context.Context, id string) (*services.Run, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Run), args.Error(1)
}

func (m *MockLeaderboardService) List(ctx context.Context, limit int) ([]archive.RunInfo, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]archive.RunInfo), args.Error(1)
}

func (m *MockLeaderboardService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockLeaderboardService) Export(ctx context.Context, run *services.Run, format services.ExportFormat, w io.Writer) error {
	args := m.Called(run.ID, format)
	if payload := args.String(1); payload != "" {
		io.WriteString(w, payload)
	}
	return args.Error(0)
}

type upload struct {
	field, name, body string
}

func multipartBody(t *testing.T, values map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestRouter(t *testing.T, service LeaderboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewLeaderboardHandler(service, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/columns/detect", handler.DetectColumns)
		r.Mount("/leaderboards", handler.Routes())
	})
	return r
}

func sampleRun() *services.Run {
	return &services.Run{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Label:     "march",
		Result: &dataprocessing.Result{
			Rows: []domain.LeaderboardRow{
				{PageKey: "Alpha", Rank: 1, TotalPosts: 2, TotalEngagement: 30, DaysWon: 1},
			},
		},
		Summary: dataprocessing.Summary{TotalPages: 1, TotalPosts: 2, TotalEngagement: 30, AverageEngagement: 30},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLeaderboardHandler_DetectColumns(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		withFile       bool
		setupMock      func(*MockLeaderboardService)
		expectedStatus int
		checkBody      func(*testing.T, map[string]interface{})
	}{
		{
			name:     "detects performance columns",
			kind:     "Performance",
			withFile: true,
			setupMock: func(m *MockLeaderboardService) {
				m.On("DetectReader", "posts.csv", domain.TablePerformance).Return(&services.Detection{
					Kind:     domain.TablePerformance,
					Table:    "posts.csv",
					Columns:  []string{"Page", "Likes"},
					Mapping:  domain.Mapping{domain.FieldPageKey: "Page", domain.FieldLikes: "Likes"},
					RowCount: 3,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "performance", body["kind"])
				assert.Equal(t, float64(3), body["row_count"])
			},
		},
		{
			name:           "rejects unknown kind",
			kind:           "audience",
			withFile:       true,
			setupMock:      func(m *MockLeaderboardService) {},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
			},
		},
		{
			name:           "requires a file",
			kind:           "followers",
			setupMock:      func(m *MockLeaderboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "unsupported file type",
			kind:     "performance",
			withFile: true,
			setupMock: func(m *MockLeaderboardService) {
				m.On("DetectReader", "posts.csv", domain.TablePerformance).
					Return(nil, apierrors.NewUnsupportedError("legacy .xls workbooks are not supported"))
			},
			expectedStatus: http.StatusUnsupportedMediaType,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeUnsupportedFile, body["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockLeaderboardService)
			tt.setupMock(service)

			var files []upload
			if tt.withFile {
				files = append(files, upload{"file", "posts.csv", "Page,Likes\nAlpha,3\n"})
			}
			body, contentType := multipartBody(t, map[string]string{"kind": tt.kind}, files...)
			req := httptest.NewRequest(http.MethodPost, "/api/columns/detect", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			newTestRouter(t, service).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, decodeBody(t, rec))
			}
			service.AssertExpectations(t)
		})
	}
}

func TestLeaderboardHandler_CreateLeaderboard(t *testing.T) {
	t.Run("creates a run with mapping overrides", func(t *testing.T) {
		service := new(MockLeaderboardService)
		service.On("Generate", mock.MatchedBy(func(req services.GenerateRequest) bool {
			return req.Performance.Name == "posts.csv" &&
				req.Followers != nil && req.Followers.Name == "fans.csv" &&
				req.Previous == nil &&
				req.PriorRunID == "latest" &&
				req.Label == "march" &&
				req.Mappings[domain.TablePerformance][domain.FieldPageKey] == "Profile"
		})).Return(sampleRun(), nil)

		body, contentType := multipartBody(t,
			map[string]string{
				"label":     "march",
				"prior_run": "latest",
				"mapping":   `{"performance":{"page_key":"Profile"}}`,
			},
			upload{"performance", "posts.csv", "Profile,Likes\nAlpha,3\n"},
			upload{"followers", "fans.csv", "Page,Followers\nAlpha,10\n"},
		)
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "/api/leaderboards/run-1", rec.Header().Get("Location"))
		resp := decodeBody(t, rec)
		assert.Equal(t, "run-1", resp["id"])
		service.AssertExpectations(t)
	})

	t.Run("performance file is required", func(t *testing.T) {
		service := new(MockLeaderboardService)
		body, contentType := multipartBody(t, map[string]string{"label": "x"},
			upload{"followers", "fans.csv", "Page,Followers\n"})
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "Generate", mock.Anything)
	})

	t.Run("rejects unknown mapping field", func(t *testing.T) {
		service := new(MockLeaderboardService)
		body, contentType := multipartBody(t,
			map[string]string{"mapping": `{"performance":{"reach":"Reach"}}`},
			upload{"performance", "posts.csv", "Page\n"})
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "Generate", mock.Anything)
	})

	t.Run("rejects malformed mapping json", func(t *testing.T) {
		service := new(MockLeaderboardService)
		body, contentType := multipartBody(t,
			map[string]string{"mapping": `{"performance":`},
			upload{"performance", "posts.csv", "Page\n"})
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing columns map to 422", func(t *testing.T) {
		service := new(MockLeaderboardService)
		service.On("Generate", mock.Anything).Return(nil,
			apierrors.NewSchemaError("performance table is missing required columns", nil, []string{"Comments", "Shares"}))

		body, contentType := multipartBody(t, nil, upload{"performance", "posts.csv", "Page,Likes\n"})
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, apierrors.TypeMissingColumns, resp["type"])
	})

	t.Run("json body is rejected", func(t *testing.T) {
		service := new(MockLeaderboardService)
		req := httptest.NewRequest(http.MethodPost, "/api/leaderboards", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newTestRouter(t, service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLeaderboardHandler_ListLeaderboards(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		limit          int
		expectedStatus int
	}{
		{"default limit", "", defaultListLimit, http.StatusOK},
		{"explicit limit", "?limit=5", 5, http.StatusOK},
		{"limit too large", "?limit=500", 0, http.StatusBadRequest},
		{"limit not a number", "?limit=abc", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockLeaderboardService)
			if tt.expectedStatus == http.StatusOK {
				service.On("List", tt.limit).Return([]archive.RunInfo{
					{ID: "run-1", Pages: 3, Posts: 9, TotalEngagement: 120},
				}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/leaderboards"+tt.query, nil)
			rec := httptest.NewRecorder()
			newTestRouter(t, service).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, rec)
				assert.Equal(t, float64(1), body["count"])
			}
			service.AssertExpectations(t)
		})
	}
}

func TestLeaderboardHandler_GetLeaderboard(t *testing.T) {
	service := new(MockLeaderboardService)
	service.On("Get", "run-1").Return(sampleRun(), nil)
	service.On("Get", "missing").Return(nil, apierrors.NewNotFoundError("leaderboard run missing"))

	router := newTestRouter(t, service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/run-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "march", body["label"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboardHandler_DeleteLeaderboard(t *testing.T) {
	service := new(MockLeaderboardService)
	service.On("Delete", "run-1").Return(nil)
	service.On("Delete", "missing").Return(apierrors.NewNotFoundError("leaderboard missing"))

	router := newTestRouter(t, service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/leaderboards/run-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/leaderboards/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertExpectations(t)
}

func TestLeaderboardHandler_ExportLeaderboard(t *testing.T) {
	t.Run("csv by default", func(t *testing.T) {
		service := new(MockLeaderboardService)
		service.On("Get", "run-1").Return(sampleRun(), nil)
		service.On("Export", "run-1", services.FormatCSV).Return(nil, "Page/Profile/Channel\nAlpha\n")

		rec := httptest.NewRecorder()
		newTestRouter(t, service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/run-1/export", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="leaderboard-run-1.csv"`)
		assert.Equal(t, "Page/Profile/Channel\nAlpha\n", rec.Body.String())
	})

	t.Run("xlsx on request", func(t *testing.T) {
		service := new(MockLeaderboardService)
		service.On("Get", "run-1").Return(sampleRun(), nil)
		service.On("Export", "run-1", services.FormatXLSX).Return(nil, "PK")

		rec := httptest.NewRecorder()
		newTestRouter(t, service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/run-1/export?format=XLSX", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	})

	t.Run("unknown format", func(t *testing.T) {
		service := new(MockLeaderboardService)

		rec := httptest.NewRecorder()
		newTestRouter(t, service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/run-1/export?format=pdf", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "Get", mock.Anything)
	})

	t.Run("export failure renders a problem", func(t *testing.T) {
		service := new(MockLeaderboardService)
		service.On("Get", "run-1").Return(sampleRun(), nil)
		service.On("Export", "run-1", services.FormatCSV).Return(apierrors.NewStorageError("write failed", nil), "")

		rec := httptest.NewRecorder()
		newTestRouter(t, service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/run-1/export", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})
}

func TestToMappings(t *testing.T) {
	assert.Nil(t, toMappings(nil))

	got := toMappings(map[string]map[string]string{
		"followers": {"follower_count": "Fans", "page_key": ""},
	})
	assert.Equal(t, domain.Mapping{domain.FieldFollowerCount: "Fans", domain.FieldPageKey: ""}, got[domain.TableFollowers])
}

type trackedFile struct {
	*bytes.Reader
	closed bool
}

func (f *trackedFile) Close() error {
	f.closed = true
	return nil
}

func TestCollectSources(t *testing.T) {
	t.Run("failure closes files already opened", func(t *testing.T) {
		performance := &trackedFile{Reader: bytes.NewReader([]byte("Page\nA\n"))}
		followers := &trackedFile{Reader: bytes.NewReader(nil)}
		opened := map[string]*trackedFile{"performance": performance, "followers": followers}

		var asked []string
		sources, err := collectSources(func(field string) (*services.Source, error) {
			asked = append(asked, field)
			if field == "previous" {
				return nil, apierrors.InvalidRequestWithError(io.ErrUnexpectedEOF)
			}
			return &services.Source{Name: field + ".csv", Reader: opened[field]}, nil
		}, "performance", "previous", "followers")

		require.Error(t, err)
		assert.Nil(t, sources)
		assert.True(t, performance.closed)
		assert.False(t, followers.closed)
		assert.Equal(t, []string{"performance", "previous"}, asked)
	})

	t.Run("missing parts stay nil", func(t *testing.T) {
		file := &trackedFile{Reader: bytes.NewReader(nil)}
		sources, err := collectSources(func(field string) (*services.Source, error) {
			if field == "performance" {
				return &services.Source{Name: "p.csv", Reader: file}, nil
			}
			return nil, nil
		}, "performance", "previous", "followers")

		require.NoError(t, err)
		require.Len(t, sources, 3)
		assert.Nil(t, sources[1])
		assert.Nil(t, sources[2])

		closeSources(sources...)
		assert.True(t, file.closed)
	})
}
