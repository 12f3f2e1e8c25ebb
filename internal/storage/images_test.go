package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"smartshop_back_end/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _, err := s.Get(ctx, "absent.png")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Put(ctx, "a.webp", "image/webp", strings.NewReader("RIFF....WEBP"), 12))

	rc, info, err := s.Get(ctx, "a.webp")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, "RIFF....WEBP", string(data))
	assert.Equal(t, ObjectInfo{ContentType: "image/webp", Size: 12}, info)
}
