package objectclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/storagegate/internal/core"
)

func TestMemoryClientRoundTrip(t *testing.T) {
	c := NewMemoryClient("local", "")
	ctx := context.Background()

	payload := []byte{0x89, 0x50, 0x4E, 0x47}
	url, err := c.UploadFile(ctx, "logo.png", payload, core.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://local.localhost/logo.png", url)

	// The stored copy must not alias the caller's slice.
	payload[0] = 0
	got, err := c.GetFile(ctx, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, got)

	got[1] = 0
	again, err := c.GetFile(ctx, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, byte(0x50), again[1])
}

func TestMemoryClientOverwriteAndDelete(t *testing.T) {
	c := NewMemoryClient("local", "cdn.test")
	ctx := context.Background()

	_, err := c.UploadFile(ctx, "a.txt", []byte("one"), core.PutOptions{})
	require.NoError(t, err)
	_, err = c.UploadFile(ctx, "a.txt", []byte("two"), core.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, c.keys())

	got, err := c.GetFile(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	require.NoError(t, c.DeleteFile(ctx, "a.txt"))
	require.NoError(t, c.DeleteFile(ctx, "a.txt"))
	assert.Empty(t, c.keys())

	_, err = c.GetFile(ctx, "a.txt")
	assert.True(t, core.IsNotFound(err))
}

func TestMemoryClientRejectsEmptyKey(t *testing.T) {
	c := NewMemoryClient("local", "")

	_, err := c.UploadFile(context.Background(), "", []byte("x"), core.PutOptions{})
	assert.Equal(t, core.KindInvalidInput, core.KindOf(err))
	assert.Equal(t, core.KindInvalidInput, core.KindOf(c.DeleteFile(context.Background(), "")))
}
