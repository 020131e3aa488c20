package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/core"
	objectclient "github.com/markdave123-py/storagegate/internal/core/object-client"
	"github.com/markdave123-py/storagegate/internal/services"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47}

// failingClient returns err from every operation.
type failingClient struct {
	err error
}

func (f failingClient) UploadFile(context.Context, string, []byte, core.PutOptions) (string, error) {
	return "", f.err
}
func (f failingClient) GetFile(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingClient) DeleteFile(context.Context, string) error { return f.err }
func (f failingClient) ObjectURL(key string) string { return key }
func (f failingClient) Ping(context.Context) error { return f.err }

// countingClient counts calls that change the bucket.
type countingClient struct {
	*objectclient.MemoryClient
	mutations int
}

func (c *countingClient) UploadFile(ctx context.Context, key string, data []byte, opts core.PutOptions) (string, error) {
	c.mutations++
	return c.MemoryClient.UploadFile(ctx, key, data, opts)
}

func (c *countingClient) DeleteFile(ctx context.Context, key string) error {
	c.mutations++
	return c.MemoryClient.DeleteFile(ctx, key)
}

func assertStored(t *testing.T, storage core.ObjectClient, key string) {
	t.Helper()
	_, err := storage.GetFile(context.Background(), key)
	assert.NoError(t, err, key)
}

func assertMissing(t *testing.T, storage core.ObjectClient, key string) {
	t.Helper()
	_, err := storage.GetFile(context.Background(), key)
	assert.True(t, core.IsNotFound(err), key)
}

func newRouter(storage core.ObjectClient, cfg *config.Config) http.Handler {
	logger, _ := test.NewNullLogger()
	if cfg == nil {
		cfg = config.Default()
	}
	h := NewObjectHandler(services.NewObjectService(storage, false, logger), cfg, logger)

	r := chi.NewRouter()
	r.Get("/image/*", h.FetchImage)
	r.Post("/upload", h.UploadImage)
	r.Post("/upload/video", h.UploadVideo)
	r.Delete("/delete/*", h.DeleteObject)
	r.Put("/update/*", h.UpdateObject)
	return r
}

func multipartRequest(t *testing.T, method, target, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUploadThenFetchImage(t *testing.T) {
	storage := objectclient.NewMemoryClient("images", "s3.amazonaws.com")
	router := newRouter(storage, nil)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/upload", "image", "logo.png", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{
		"message":  "Image upload successful",
		"imageUrl": "https://images.s3.amazonaws.com/logo.png",
	}, decode(t, rec))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/image/logo.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())
}

func TestFetchNestedAndEscapedKeys(t *testing.T) {
	storage := objectclient.NewMemoryClient("images", "s3.amazonaws.com")
	_, err := storage.UploadFile(context.Background(), "albums/2024/cat photo.JPG", []byte("jpg"), core.PutOptions{})
	require.NoError(t, err)
	_, err = storage.UploadFile(context.Background(), "notes.unknownext", []byte("?"), core.PutOptions{})
	require.NoError(t, err)
	router := newRouter(storage, nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/image/albums/2024/cat%20photo.JPG", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpg", rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/image/notes.unknownext", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestFetchMissingImageIsNotFound(t *testing.T) {
	router := newRouter(objectclient.NewMemoryClient("images", ""), nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/image/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]string{"error": "Image not found"}, decode(t, rec))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/image/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"error": "Invalid object key"}, decode(t, rec))
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	storage := &countingClient{MemoryClient: objectclient.NewMemoryClient("images", "")}
	router := newRouter(storage, nil)

	tests := []struct {
		name    string
		req     *http.Request
		wantMsg string
	}{
		{
			name:    "image field missing",
			req:     multipartRequest(t, http.MethodPost, "/upload", "", "", nil),
			wantMsg: "No image file provided.",
		},
		{
			name:    "wrong field name",
			req:     multipartRequest(t, http.MethodPost, "/upload", "file", "logo.png", pngHeader),
			wantMsg: "No image file provided.",
		},
		{
			name:    "not multipart",
			req:     httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(`{"image":"x"}`)),
			wantMsg: "No image file provided.",
		},
		{
			name:    "video field missing",
			req:     multipartRequest(t, http.MethodPost, "/upload/video", "image", "clip.mp4", []byte("v")),
			wantMsg: "No video file provided.",
		},
		{
			name:    "update without file",
			req:     multipartRequest(t, http.MethodPut, "/update/logo.png", "", "", nil),
			wantMsg: "No updated file provided.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]string{"message": tt.wantMsg}, decode(t, rec))
		})
	}
	assert.Zero(t, storage.mutations)
}

func TestUploadOverLimitIsRejected(t *testing.T) {
	storage := objectclient.NewMemoryClient("images", "")
	cfg := config.Default()
	cfg.MaxUploadBytes = 512
	router := newRouter(storage, cfg)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/upload", "image", "big.png", bytes.Repeat([]byte{1}, 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, map[string]string{"error": "File too large"}, decode(t, rec))
	assertMissing(t, storage, "big.png")

	rec = serve(router, multipartRequest(t, http.MethodPost, "/upload", "image", "small.png", pngHeader))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadVideo(t *testing.T) {
	storage := objectclient.NewMemoryClient("media", "cdn.test")
	router := newRouter(storage, nil)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/upload/video", "video", "clip.mp4", []byte("mp4")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"message": "Video uploaded successfully.",
		"url":     "https://media.cdn.test/videos/clip.mp4",
	}, decode(t, rec))
	assertStored(t, storage, "videos/clip.mp4")
	assertMissing(t, storage, "clip.mp4")
}

func TestDeleteThenFetchIsNotFound(t *testing.T) {
	storage := objectclient.NewMemoryClient("images", "")
	router := newRouter(storage, nil)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/upload", "image", "logo.png", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/delete/logo.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"message": "File deleted successfully"}, decode(t, rec))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/image/logo.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deleting again still succeeds
	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/delete/logo.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateObject(t *testing.T) {
	storage := objectclient.NewMemoryClient("images", "s3.amazonaws.com")
	router := newRouter(storage, nil)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/upload", "image", "old.png", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, multipartRequest(t, http.MethodPut, "/update/old.png", "updatedFile", "new.jpg", []byte("jpeg")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"message":  "File updated successfully",
		"imageUrl": "https://images.s3.amazonaws.com/new.jpg",
	}, decode(t, rec))
	assertStored(t, storage, "new.jpg")
	assertMissing(t, storage, "old.png")

	rec = serve(router, multipartRequest(t, http.MethodPut, "/update/new.jpg", "updatedFile", "new.jpg", []byte("jpeg v2")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/image/new.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg v2", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestStorageFailuresMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantMsg    string
	}{
		{
			name: "upload upstream down",
			err:  core.NewStorageError(core.KindUpstreamUnavailable, "s3 put", "logo.png", context.DeadlineExceeded),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/upload", "image", "logo.png", pngHeader)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Failed to upload the file",
		},
		{
			name: "upload unknown failure",
			err:  errors.New("access denied"),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/upload", "image", "logo.png", pngHeader)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to upload the file",
		},
		{
			name: "fetch unknown failure",
			err:  errors.New("access denied"),
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/image/logo.png", nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to fetch image from S3",
		},
		{
			name: "delete failure",
			err:  errors.New("access denied"),
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodDelete, "/delete/logo.png", nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to delete the file from S3",
		},
		{
			name: "update failure",
			err:  core.NewStorageError(core.KindUpstreamUnavailable, "s3 delete", "logo.png", errors.New("503")),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPut, "/update/logo.png", "updatedFile", "logo.png", pngHeader)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Failed to update the file in S3",
		},
		{
			name: "upload to missing bucket",
			err:  core.NewStorageError(core.KindNotFound, "s3 put", "logo.png", errors.New("404")),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/upload", "image", "logo.png", pngHeader)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to upload the file",
		},
		{
			name: "delete reports not found",
			err:  core.NewStorageError(core.KindNotFound, "s3 delete", "logo.png", errors.New("404")),
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodDelete, "/delete/logo.png", nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to delete the file from S3",
		},
		{
			name: "update reports not found",
			err:  core.NewStorageError(core.KindNotFound, "s3 delete", "old.png", errors.New("404")),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPut, "/update/old.png", "updatedFile", "new.png", pngHeader)
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to update the file in S3",
		},
		{
			name: "video reports not found",
			err:  core.NewStorageError(core.KindNotFound, "s3 put", "videos/clip.mp4", errors.New("404")),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/upload/video", "video", "clip.mp4", []byte("v"))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to upload the video",
		},
		{
			name: "fetch reports not found",
			err:  core.NewStorageError(core.KindNotFound, "s3 get", "logo.png", errors.New("404")),
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/image/logo.png", nil)
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Image not found",
		},
		{
			name: "video failure",
			err:  errors.New("boom"),
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/upload/video", "video", "clip.mp4", []byte("v"))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to upload the video",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(failingClient{err: tt.err}, nil)
			rec := serve(router, tt.req(t))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, map[string]string{"error": tt.wantMsg}, decode(t, rec))
			assert.NotContains(t, rec.Body.String(), "access denied")
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForKind(core.KindNotFound))
	assert.Equal(t, http.StatusBadRequest, statusForKind(core.KindInvalidInput))
	assert.Equal(t, http.StatusServiceUnavailable, statusForKind(core.KindUpstreamUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(core.KindUnknown))
}
