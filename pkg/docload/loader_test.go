package docload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSplitsPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("page one\fpage two\f \f\fpage three"), 0o644))

	pages, err := NewTextLoader().Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"page one", "page two", "page three"}, pages)
}

func TestLoadSinglePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("just one page"), 0o644))

	pages, err := NewTextLoader().Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"just one page"}, pages)
}

func TestLoadMissingSource(t *testing.T) {
	pages, err := NewTextLoader().Load("/no/such/file.txt")

	require.NoError(t, err)
	assert.Empty(t, pages)

	pages, err = NewTextLoader().Load("")
	require.NoError(t, err)
	assert.Empty(t, pages)
}
