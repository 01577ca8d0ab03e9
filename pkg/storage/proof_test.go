package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestSaveProof_StoresSniffedImage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewProofStorage(dir, "/uploads/proofs/", 1024)
	require.NoError(t, err)

	url, err := s.SaveProof(context.Background(), "../../My Receipt!.txt", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/proofs/"))
	assert.True(t, strings.HasSuffix(url, "-My_Receipt.png"), url)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/proofs/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSaveProof_Rejections(t *testing.T) {
	s, err := NewProofStorage(t.TempDir(), "/uploads", 32)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.SaveProof(ctx, "notes.txt", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.SaveProof(ctx, "big.png", bytes.NewReader(append(pngHeader, make([]byte, 64)...)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.SaveProof(ctx, "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "proof", sanitize("...."))
	assert.Equal(t, "a_b", sanitize("/tmp/a b.pdf"))
	assert.Len(t, sanitize(strings.Repeat("x", 80)+".png"), 50)
}
