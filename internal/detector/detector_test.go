package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "42.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake jpeg bytes"), 0o644))
	return path
}

func TestClientDetect(t *testing.T) {
	var gotConfidence string
	var gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/detect", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotConfidence = r.FormValue("confidence")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections": [
			{"class_name": "person", "confidence": 0.91},
			{"class_name": "bottle", "confidence": 0.44}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0.3)
	detections, err := client.Detect(context.Background(), writeImage(t))
	require.NoError(t, err)

	assert.Equal(t, "0.3", gotConfidence)
	assert.Equal(t, "42.jpg", gotFilename)
	require.Len(t, detections, 2)
	assert.Equal(t, "person", detections[0].Class)
	assert.InDelta(t, 0.91, detections[0].Confidence, 0.001)
}

func TestClientDetectServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0.3)
	_, err := client.Detect(context.Background(), writeImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClientDetectMissingImage(t *testing.T) {
	client := NewClient("http://localhost:0", 0.3)
	_, err := client.Detect(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"))
	assert.Error(t, err)
}
