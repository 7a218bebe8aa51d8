package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()

	url, err := s.Save(ctx, "dress/test-slug.jpg", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/dress/test-slug.jpg", url)

	_, err = s.Save(ctx, "dress/test-slug.jpg", strings.NewReader("second"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "dress", "test-slug.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "dress", "test-slug.jpg"))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, s.Delete(ctx, url))
}

func TestStorage_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	url, err := s.Save(context.Background(), "../../escape.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.jpg", url)
	_, err = os.Stat(filepath.Join(dir, "escape.jpg"))
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "..", strings.NewReader("x"))
	require.Error(t, err)
}
