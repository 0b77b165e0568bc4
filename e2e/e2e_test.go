// End-to-end tests exercise the full stack: HTTP router, catalog
// service and a real SQLite backend, with only the network swapped for
// httptest.
package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarimov/petal"
	"github.com/dkarimov/petal/database"
	petalhttp "github.com/dkarimov/petal/http"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := context.Background()

	store, creds, cleanup, err := database.Connect(ctx, database.Config{
		Backend:      petal.BackendSQLite,
		DSN:          ":memory:",
		Tables:       petal.Tables{Photos: "gallery_photos", Users: "users"},
		SeedUsername: "danial",
		SeedPassword: "albina",
	})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	service, err := petal.NewCatalogService(store, creds, petal.BackendSQLite)
	require.NoError(t, err)

	handler := petalhttp.NewHandler(&petalhttp.HandlerConfig{}, service)

	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, data
}

func TestHealth(t *testing.T) {
	srv := startServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestConnectionProbe(t *testing.T) {
	srv := startServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/test-connection", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var probe struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(body, &probe))
	assert.True(t, probe.Success)
}

func TestLogin(t *testing.T) {
	srv := startServer(t)

	t.Run("seeded account logs in", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/login", map[string]string{
			"username": "danial",
			"password": "albina",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result petal.LoginResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.True(t, result.Success)
		assert.Equal(t, "Login successful", result.Message)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/login", map[string]string{
			"username": "danial",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result petal.LoginResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.False(t, result.Success)
		assert.Equal(t, "Invalid credentials", result.Message)
	})
}

func TestPhotoLifecycle(t *testing.T) {
	srv := startServer(t)

	// Catalog starts empty
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/photos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var photos []petal.Photo
	require.NoError(t, json.Unmarshal(body, &photos))
	require.Empty(t, photos)

	// Add a photo
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/photos", petal.CreatePhoto{
		Title:     "Beach Day",
		Date:      "2024-06-01",
		Time:      "14:30",
		ImageData: "data:image/jpeg;base64,/9j/4AAQ",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created petal.Photo
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Beach Day", created.Title)
	assert.Equal(t, "2024-06-01", created.Date)
	assert.Equal(t, "14:30", created.Time)

	// It shows up in the listing
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/photos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &photos))
	require.Len(t, photos, 1)
	assert.Equal(t, created.ID, photos[0].ID)

	// Delete it
	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/api/photos/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Photo deleted successfully")

	// Catalog is empty again
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/photos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &photos))
	assert.Empty(t, photos)

	// A second delete of the same photo is a 404
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/photos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUnknownPhoto(t *testing.T) {
	srv := startServer(t)

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/api/photos/nonexistent-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not_found")
}

func TestCreatePhotoValidation(t *testing.T) {
	srv := startServer(t)

	tests := []struct {
		name  string
		photo petal.CreatePhoto
	}{
		{"missing title", petal.CreatePhoto{Date: "2024-06-01", Time: "14:30", ImageData: "x"}},
		{"missing image", petal.CreatePhoto{Title: "t", Date: "2024-06-01", Time: "14:30"}},
		{"bad date", petal.CreatePhoto{Title: "t", Date: "June 1st", Time: "14:30", ImageData: "x"}},
		{"bad time", petal.CreatePhoto{Title: "t", Date: "2024-06-01", Time: "2pm", ImageData: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/photos", tt.photo)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListOrdering(t *testing.T) {
	srv := startServer(t)

	for i := 1; i <= 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/photos", petal.CreatePhoto{
			Title:     fmt.Sprintf("photo-%d", i),
			Date:      "2024-06-01",
			Time:      "08:00",
			ImageData: "x",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/photos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var photos []petal.Photo
	require.NoError(t, json.Unmarshal(body, &photos))
	require.Len(t, photos, 3)

	// Newest first
	assert.Equal(t, "photo-3", photos[0].Title)
	assert.Equal(t, "photo-2", photos[1].Title)
	assert.Equal(t, "photo-1", photos[2].Title)
}
