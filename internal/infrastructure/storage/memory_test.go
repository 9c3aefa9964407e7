package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	m := NewMemoryObjectStorage("https://files.example.com/")
	ctx := context.Background()
	key := "tenants/abc/pix/1.png"

	exists, err := m.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Upload(ctx, key, []byte{0x89, 'P', 'N', 'G'}, "image/png"))
	data, contentType, ok := m.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.Len(t, data, 4)

	u, expiresAt, err := m.DownloadURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "https://files.example.com/tenants/abc/pix/1.png?expires=")
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, m.Delete(ctx, key))
	exists, _ = m.Exists(ctx, key)
	assert.False(t, exists)

	assert.ErrorIs(t, m.Upload(ctx, "", nil, ""), errKeyRequired)
}
