package models

// StoredObject is one keyed object in the configured bucket.
type StoredObject struct {
	Key         string `json:"key"`
	Content     []byte `json:"-"`
	ContentType string `json:"content_type"` // derived from the key's extension, never stored
}

// Size reports the content length in bytes.
func (o *StoredObject) Size() int {
	return len(o.Content)
}
