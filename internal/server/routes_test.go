package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"restreamer/internal/config"
	"restreamer/internal/media"
	"restreamer/internal/platform"
	"restreamer/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*FiberServer, string) {
	t.Helper()

	dir := t.TempDir()
	mediaRoot := filepath.Join(dir, "public")
	stub := filepath.Join(dir, "ffmpeg-stub.sh")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexec sleep 30\n"), 0755))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         8787,
			Host:         "127.0.0.1",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Media: config.MediaConfig{
			Root:         mediaRoot,
			ChannelsFile: filepath.Join(dir, "channels.json"),
			VideoExts:    []string{".mp4", ".webm", ".ogg", ".mov", ".avi"},
		},
		Stream: config.StreamConfig{
			FFmpegPath: stub,
			LogLines:   50,
		},
		Security: config.SecurityConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   1000,
			RateWindow:  1 * time.Minute,
		},
	}

	registry := stream.NewRegistry()
	supervisor := stream.NewSupervisor(registry, mediaRoot, stub, cfg.Stream.LogLines)

	mediaService, err := media.NewService(mediaRoot, cfg.Media.VideoExts, registry, nil)
	require.NoError(t, err)

	srv := &FiberServer{
		App:          fiber.New(),
		cfg:          cfg,
		registry:     registry,
		supervisor:   supervisor,
		mediaService: mediaService,
		storage:      nil,
		platforms:    platform.NewService(cfg.Media.ChannelsFile),
	}
	srv.applyMiddleware()
	srv.RegisterRoutes()

	t.Cleanup(func() {
		supervisor.StopAll()
	})
	return srv, mediaRoot
}

func makeRequest(t *testing.T, srv *FiberServer, method, url string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.App.Test(req, -1) // -1 disables timeout
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := makeRequest(t, srv, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["activeStreams"])
}

func TestListVideos(t *testing.T) {
	srv, mediaRoot := newTestServer(t)

	resp := makeRequest(t, srv, "GET", "/videos", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var videos []map[string]interface{}
	decodeBody(t, resp, &videos)
	assert.Empty(t, videos)

	require.NoError(t, os.WriteFile(filepath.Join(mediaRoot, "demo.mp4"), []byte("data"), 0644))

	resp = makeRequest(t, srv, "GET", "/videos", nil)
	decodeBody(t, resp, &videos)
	require.Len(t, videos, 1)
	assert.Equal(t, "demo.mp4", videos[0]["name"])
	assert.Equal(t, float64(4), videos[0]["size"])
	assert.Equal(t, "/demo.mp4", videos[0]["path"])
}

func TestPlatformsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing catalog is empty", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/platforms", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var channels []map[string]interface{}
		decodeBody(t, resp, &channels)
		assert.Empty(t, channels)
	})

	t.Run("catalog with channels", func(t *testing.T) {
		payload := `[{"id":"main","name":"Main","emoji":"🎬","url":"rtmp://a.rtmp.youtube.com/live2","streamKey":"abcd-1234"}]`
		require.NoError(t, os.WriteFile(srv.cfg.Media.ChannelsFile, []byte(payload), 0644))

		resp := makeRequest(t, srv, "GET", "/platforms", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var channels []map[string]interface{}
		decodeBody(t, resp, &channels)
		require.Len(t, channels, 1)
		assert.Equal(t, "main", channels[0]["id"])
	})

	t.Run("malformed catalog", func(t *testing.T) {
		require.NoError(t, os.WriteFile(srv.cfg.Media.ChannelsFile, []byte("{broken"), 0644))

		resp := makeRequest(t, srv, "GET", "/platforms", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestDownloadEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing key", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/download", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("storage not configured", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/download", map[string]string{"key": "videos/demo.mp4"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body map[string]interface{}
		decodeBody(t, resp, &body)
		assert.Equal(t, "storage client not initialized", body["error"])
	})
}

func TestStreamStartValidation(t *testing.T) {
	srv, mediaRoot := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(mediaRoot, "demo.mp4"), []byte("data"), 0644))

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "missing fileName",
			body:       map[string]interface{}{"streamKey": "k", "destinationUrl": "rtmp://x/app"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing streamKey",
			body:       map[string]interface{}{"fileName": "demo.mp4", "destinationUrl": "rtmp://x/app"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing destination",
			body:       map[string]interface{}{"fileName": "demo.mp4", "streamKey": "k"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "file not found",
			body:       map[string]interface{}{"fileName": "missing.mp4", "streamKey": "k", "destinationUrl": "rtmp://x/app"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := makeRequest(t, srv, "POST", "/stream/start", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestStreamLifecycle(t *testing.T) {
	srv, mediaRoot := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(mediaRoot, "demo.mp4"), []byte("data"), 0644))

	start := map[string]interface{}{
		"fileName":       "demo.mp4",
		"streamKey":      "abcd-1234",
		"title":          "Demo Stream",
		"channel":        "Main",
		"emoji":          "🎬",
		"loop":           true,
		"destinationUrl": "rtmp://a.rtmp.youtube.com/live2",
	}

	// Start
	resp := makeRequest(t, srv, "POST", "/stream/start", start)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var startBody map[string]interface{}
	decodeBody(t, resp, &startBody)
	assert.Equal(t, "demo.mp4", startBody["fileName"])

	// Duplicate start for the same key is rejected.
	resp = makeRequest(t, srv, "POST", "/stream/start", start)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Status shows the session.
	resp = makeRequest(t, srv, "GET", "/stream/status", nil)
	var statusBody struct {
		Streams []map[string]interface{} `json:"streams"`
	}
	decodeBody(t, resp, &statusBody)
	require.Len(t, statusBody.Streams, 1)
	assert.Equal(t, "abcd-1234", statusBody.Streams[0]["streamKey"])
	assert.Equal(t, "demo.mp4", statusBody.Streams[0]["fileName"])
	assert.Equal(t, true, statusBody.Streams[0]["loop"])
	assert.Equal(t, true, statusBody.Streams[0]["isStreaming"])

	// The source file cannot be deleted while streaming.
	resp = makeRequest(t, srv, "POST", "/delete", map[string]string{"fileName": "demo.mp4"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Logs endpoint requires a key, returns lines otherwise.
	resp = makeRequest(t, srv, "GET", "/stream/logs", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = makeRequest(t, srv, "GET", "/stream/logs?streamKey=abcd-1234", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var logsBody struct {
		Logs []string `json:"logs"`
	}
	decodeBody(t, resp, &logsBody)
	assert.NotNil(t, logsBody.Logs)

	// Stop, then wait for the reaper to clear the registry.
	resp = makeRequest(t, srv, "POST", "/stream/stop", map[string]string{"streamKey": "abcd-1234"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		resp := makeRequest(t, srv, "GET", "/stream/status", nil)
		var body struct {
			Streams []map[string]interface{} `json:"streams"`
		}
		decodeBody(t, resp, &body)
		return len(body.Streams) == 0
	}, 5*time.Second, 50*time.Millisecond)

	// Stopping again reports not found.
	resp = makeRequest(t, srv, "POST", "/stream/stop", map[string]string{"streamKey": "abcd-1234"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// With the stream gone the file can be deleted; a second delete is 404.
	resp = makeRequest(t, srv, "POST", "/delete", map[string]string{"fileName": "demo.mp4"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = makeRequest(t, srv, "POST", "/delete", map[string]string{"fileName": "demo.mp4"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamStopValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := makeRequest(t, srv, "POST", "/stream/stop", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = makeRequest(t, srv, "POST", "/stream/stop", map[string]string{"streamKey": "never-started"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStopAllWithNoStreams(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := makeRequest(t, srv, "POST", "/stream/stop-all", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Contains(t, body["message"], "0 stream")
}

func TestStopAllClearsRegistry(t *testing.T) {
	srv, mediaRoot := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(mediaRoot, "demo.mp4"), []byte("data"), 0644))

	for _, key := range []string{"key-1", "key-2", "key-3"} {
		resp := makeRequest(t, srv, "POST", "/stream/start", map[string]interface{}{
			"fileName":       "demo.mp4",
			"streamKey":      key,
			"destinationUrl": "rtmp://x/app",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := makeRequest(t, srv, "POST", "/stream/stop-all", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		return srv.registry.Len() == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStorageEndpointsNotInitialized(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		url    string
		body   interface{}
	}{
		{"GET", "/storage/objects", nil},
		{"GET", "/storage/stats", nil},
		{"POST", "/storage/folder", map[string]string{"path": "movies/"}},
		{"POST", "/storage/rename", map[string]string{"oldKey": "a.mp4", "newKey": "b.mp4"}},
		{"POST", "/storage/delete", map[string]string{"key": "a.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			resp := makeRequest(t, srv, tt.method, tt.url, tt.body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			var body map[string]interface{}
			decodeBody(t, resp, &body)
			assert.Equal(t, "storage client not initialized", body["error"])
		})
	}
}
