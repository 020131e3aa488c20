package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/services"
)

var (
	errMissingFile = errors.New("missing file field")
	errTooLarge    = errors.New("request body too large")
)

type uploadResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

type videoResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

type ObjectHandler struct {
	objects         *services.ObjectService
	log             log.FieldLogger
	multipartMemory int64
	maxUploadBytes  int64
}

func NewObjectHandler(objects *services.ObjectService, cfg *config.Config, logger log.FieldLogger) *ObjectHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	memory := cfg.MultipartMemoryBytes
	if memory <= 0 {
		memory = 32 << 20
	}
	return &ObjectHandler{
		objects:         objects,
		log:             logger,
		multipartMemory: memory,
		maxUploadBytes:  cfg.MaxUploadBytes,
	}
}

// UploadImage stores the multipart "image" file under its original filename.
func (h *ObjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readFormFile(w, r, "image")
	if err != nil {
		h.uploadRejected(w, r, err, "No image file provided.")
		return
	}

	url, err := h.objects.UploadImage(r.Context(), filename, data)
	if err != nil {
		storageFailure(h.log, w, r, err, "upload", filename, "Failed to upload the file", "")
		return
	}

	h.log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"key":        filename,
		"size":       len(data),
	}).Info("File uploaded successfully")
	writeJSON(w, http.StatusOK, uploadResponse{Message: "Image upload successful", ImageURL: url})
}

// UploadVideo stores the multipart "video" file under videos/<filename>.
func (h *ObjectHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readFormFile(w, r, "video")
	if err != nil {
		h.uploadRejected(w, r, err, "No video file provided.")
		return
	}

	url, err := h.objects.UploadVideo(r.Context(), filename, data)
	if err != nil {
		storageFailure(h.log, w, r, err, "upload video", services.VideoKeyPrefix+filename, "Failed to upload the video", "")
		return
	}

	h.log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"key":        services.VideoKeyPrefix + filename,
		"size":       len(data),
	}).Info("Video uploaded successfully")
	writeJSON(w, http.StatusOK, videoResponse{Message: "Video uploaded successfully.", URL: url})
}

// FetchImage streams the stored bytes back with a Content-Type taken from the
// key's extension.
func (h *ObjectHandler) FetchImage(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	obj, err := h.objects.Fetch(r.Context(), key)
	if err != nil {
		storageFailure(h.log, w, r, err, "fetch", key, "Failed to fetch image from S3", "Image not found")
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(obj.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Content); err != nil {
		h.log.WithFields(log.Fields{"key": key, "err": err}).Warn("Could not write object body")
	}
}

// DeleteObject removes the object at the path key. Missing keys still succeed.
func (h *ObjectHandler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	if err := h.objects.Delete(r.Context(), key); err != nil {
		storageFailure(h.log, w, r, err, "delete", key, "Failed to delete the file from S3", "")
		return
	}

	h.log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"key":        key,
	}).Info("File deleted successfully")
	writeJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}

// UpdateObject replaces the object at the path key with the multipart
// "updatedFile", stored under that file's own name.
func (h *ObjectHandler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	filename, data, err := h.readFormFile(w, r, "updatedFile")
	if err != nil {
		h.uploadRejected(w, r, err, "No updated file provided.")
		return
	}

	url, err := h.objects.Replace(r.Context(), key, filename, data)
	if err != nil {
		storageFailure(h.log, w, r, err, "replace", key, "Failed to update the file in S3", "")
		return
	}

	h.log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"old_key":    key,
		"new_key":    filename,
	}).Info("File updated successfully")
	writeJSON(w, http.StatusOK, uploadResponse{Message: "File updated successfully", ImageURL: url})
}

// readFormFile parses the multipart body and reads the named file part fully
// into memory.
func (h *ObjectHandler) readFormFile(w http.ResponseWriter, r *http.Request, field string) (string, []byte, error) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			return "", nil, errTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(h.multipartMemory); err != nil {
		if isTooLarge(err) {
			return "", nil, errTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			return "", nil, errTooLarge
		}
		return "", nil, fmt.Errorf("read %s: %w", field, err)
	}
	return header.Filename, data, nil
}

func (h *ObjectHandler) uploadRejected(w http.ResponseWriter, r *http.Request, err error, missingMsg string) {
	entry := h.log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"err":        err,
	})
	switch {
	case errors.Is(err, errTooLarge):
		entry.Warn("Upload rejected: body too large")
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, errMissingFile):
		entry.Info("Upload rejected: no file")
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: missingMsg})
	default:
		entry.Error("Could not read upload")
		writeError(w, http.StatusBadRequest, "Could not read the uploaded file")
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
