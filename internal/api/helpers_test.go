package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nutrisnap/backend/internal/api"
	"github.com/nutrisnap/backend/internal/router"
	"github.com/nutrisnap/backend/internal/service"
	"github.com/nutrisnap/backend/internal/storage"
	"github.com/nutrisnap/backend/internal/testhelpers"
)

// stubScanner fakes the model pipeline with canned responses.
type stubScanner struct {
	scanResult   string
	scanErr      error
	reviseResult string
	adviceResult string
	calls        int
}

func (s *stubScanner) ScanPhoto(ctx context.Context, imageURL string) (string, error) {
	s.calls++
	return s.scanResult, s.scanErr
}

func (s *stubScanner) Revise(ctx context.Context, table, changes string) (string, error) {
	s.calls++
	return s.reviseResult, nil
}

func (s *stubScanner) Advice(ctx context.Context, table string) string {
	s.calls++
	return s.adviceResult
}

// memScanStore is an in-memory ScanStore so handler tests run without Redis.
type memScanStore struct {
	scans map[string]service.ScanResult
}

func newMemScanStore() *memScanStore {
	return &memScanStore{scans: make(map[string]service.ScanResult)}
}

func (m *memScanStore) SaveScan(ctx context.Context, scan *service.ScanResult) error {
	scan.ID = uuid.New().String()
	m.scans[scan.ID] = *scan
	return nil
}

func (m *memScanStore) GetScan(ctx context.Context, id string) (*service.ScanResult, error) {
	scan, ok := m.scans[id]
	if !ok {
		return nil, errors.New("scan not found")
	}
	return &scan, nil
}

func (m *memScanStore) UpdateScan(ctx context.Context, scan *service.ScanResult) error {
	m.scans[scan.ID] = *scan
	return nil
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	scanner *stubScanner
	scans   *memScanStore
	dir     string
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	dir := t.TempDir()

	local, err := storage.NewLocal(dir, "http://localhost:8080")
	require.NoError(t, err)

	scanner := &stubScanner{
		scanResult:   sampleTable,
		reviseResult: "NO",
		adviceResult: "Advice text",
	}
	scans := newMemScanStore()

	authService := service.NewAuthService(db, "test-secret")
	profileService := service.NewProfileService(db)
	foodService := service.NewFoodService(db)

	authHandler := api.NewAuthHandler(authService)
	profileHandler := api.NewProfileHandler(profileService, authService)
	foodHandler := api.NewFoodHandler(foodService, scanner, scans, local, local, authService, nil)

	return &testEnv{
		router:  router.SetupRouter(authHandler, profileHandler, foodHandler),
		db:      db,
		scanner: scanner,
		scans:   scans,
		dir:     dir,
	}
}

const sampleTable = `|Name|Weight, g|Kcal|Protein, g|Fat, g|Carbs, g|
|----|---------|----|----------|------|--------|
|Dish|100|140|12.2|10.0|1.0|
|TOTAL|100|140|12.2|10.0|1.0|`

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates a user through the API and returns its access token.
func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// uploadImage posts a multipart image to the scan endpoint.
func (e *testEnv) uploadImage(t *testing.T, token, fieldName, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fieldName != "" {
		fw, err := mw.CreateFormFile(fieldName, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no image here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/food/scan_image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
