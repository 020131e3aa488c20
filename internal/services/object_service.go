package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/core"
	"github.com/markdave123-py/storagegate/internal/models"
)

// VideoKeyPrefix is prepended to the original filename of every video upload.
const VideoKeyPrefix = "videos/"

var errEmptyKey = errors.New("key is empty")

// ObjectService translates gateway operations into calls on one ObjectClient.
// It holds no state between calls.
type ObjectService struct {
	storage         core.ObjectClient
	videoPublicRead bool
	log             log.FieldLogger
}

func NewObjectService(storage core.ObjectClient, videoPublicRead bool, logger log.FieldLogger) *ObjectService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ObjectService{storage: storage, videoPublicRead: videoPublicRead, log: logger}
}

// UploadImage stores data under the original filename and returns its public URL.
func (s *ObjectService) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	return s.put(ctx, "upload", filename, data, core.PutOptions{
		ContentType: core.ContentTypeByKey(filename),
	})
}

// UploadVideo stores data under videos/<filename>.
func (s *ObjectService) UploadVideo(ctx context.Context, filename string, data []byte) (string, error) {
	if filename == "" {
		return "", core.NewStorageError(core.KindInvalidInput, "upload video", filename, errEmptyKey)
	}
	return s.put(ctx, "upload video", VideoKeyPrefix+filename, data, core.PutOptions{
		ContentType: core.ContentTypeByKey(filename),
		PublicRead:  s.videoPublicRead,
	})
}

// Fetch reads the object and derives its content type from the key.
func (s *ObjectService) Fetch(ctx context.Context, key string) (*models.StoredObject, error) {
	if key == "" {
		return nil, core.NewStorageError(core.KindInvalidInput, "fetch", key, errEmptyKey)
	}
	data, err := s.storage.GetFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return &models.StoredObject{
		Key:         key,
		Content:     data,
		ContentType: core.ContentTypeByKey(key),
	}, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (s *ObjectService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.NewStorageError(core.KindInvalidInput, "delete", key, errEmptyKey)
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Replace swaps the object at oldKey for data stored under filename.
//
// When the keys match the put overwrites in place. Otherwise the old object is
// deleted first and the upload only runs if that succeeded; a failed upload
// after a successful delete leaves neither object behind.
func (s *ObjectService) Replace(ctx context.Context, oldKey, filename string, data []byte) (string, error) {
	if oldKey == "" || filename == "" {
		return "", core.NewStorageError(core.KindInvalidInput, "replace", oldKey, errEmptyKey)
	}
	opts := core.PutOptions{ContentType: core.ContentTypeByKey(filename)}

	if oldKey == filename {
		return s.put(ctx, "replace", filename, data, opts)
	}

	if err := s.storage.DeleteFile(ctx, oldKey); err != nil {
		return "", fmt.Errorf("replace: delete old object: %w", err)
	}

	url, err := s.storage.UploadFile(ctx, filename, data, opts)
	if err != nil {
		s.log.WithFields(log.Fields{
			"old_key": oldKey,
			"new_key": filename,
			"err":     err,
		}).Error("Replace lost the old object: delete succeeded but the upload failed")
		return "", fmt.Errorf("replace: upload new object: %w", err)
	}
	return url, nil
}

func (s *ObjectService) put(ctx context.Context, op, key string, data []byte, opts core.PutOptions) (string, error) {
	if key == "" {
		return "", core.NewStorageError(core.KindInvalidInput, op, key, errEmptyKey)
	}
	url, err := s.storage.UploadFile(ctx, key, data, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return url, nil
}
