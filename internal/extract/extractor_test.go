package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestText_PlainFormats(t *testing.T) {
	for _, name := range []string{"doc.txt", "doc.md", "doc.json", "doc.csv"} {
		path := writeTemp(t, name, []byte("hello document"))
		content, err := Text(path)
		require.NoError(t, err, name)
		assert.Equal(t, "hello document", content)
	}
}

func TestText_PDFUnsupported(t *testing.T) {
	path := writeTemp(t, "doc.pdf", []byte("%PDF-1.4"))
	_, err := Text(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestText_UnknownExtension(t *testing.T) {
	path := writeTemp(t, "doc.exe", []byte("MZ"))
	_, err := Text(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestText_MissingFile(t *testing.T) {
	_, err := Text(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestText_BinaryGarbage(t *testing.T) {
	path := writeTemp(t, "doc.txt", []byte{0xff, 0xfe, 0x80, 0x81})
	_, err := Text(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}
