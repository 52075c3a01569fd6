package liststore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/signup-service/internal/directory"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "list.csv"))
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	d := directory.New()
	require.NoError(t, s.Load(d))
	assert.Equal(t, 0, d.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	d := directory.New()
	d.Upsert("a@b.com", "Alice", []string{"news", "offers"})
	d.Upsert("c@d.com", "Carol, Jr.", []string{"news"})
	require.NoError(t, s.Save(d))

	loaded := directory.New()
	require.NoError(t, s.Load(loaded))
	assert.Equal(t, 2, loaded.Len())

	entry, ok := loaded.Get("a@b.com")
	require.True(t, ok)
	assert.Equal(t, "Alice", entry.Name)
	assert.Equal(t, []string{"news", "offers"}, entry.SortedTags())

	// Embedded comma survives quoting.
	entry, ok = loaded.Get("c@d.com")
	require.True(t, ok)
	assert.Equal(t, "Carol, Jr.", entry.Name)
	assert.Equal(t, []string{"news"}, entry.SortedTags())
}

func TestTagColumnsSorted(t *testing.T) {
	s := tempStore(t)
	d := directory.New()
	d.Upsert("a@b.com", "Alice", []string{"zebra"})
	d.Upsert("c@d.com", "Carol", []string{"alpha", "mid"})
	require.NoError(t, s.Save(d))

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "email,name,alpha,mid,zebra", lines[0])
}

func TestAdditiveMergeAcrossSources(t *testing.T) {
	dir := t.TempDir()
	first := New(filepath.Join(dir, "first.csv"))
	second := New(filepath.Join(dir, "second.csv"))

	require.NoError(t, os.WriteFile(first.Path,
		[]byte("email,name,news\na@b.com,Alice,true\n"), 0644))
	require.NoError(t, os.WriteFile(second.Path,
		[]byte("email,name,offers\na@b.com,Alice,yes\n"), 0644))

	d := directory.New()
	require.NoError(t, first.Load(d))
	require.NoError(t, second.Load(d))

	entry, ok := d.Get("a@b.com")
	require.True(t, ok)
	assert.Equal(t, []string{"news", "offers"}, entry.SortedTags())
}

func TestLoadSkipsBlankIdentityAndFalseCells(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path, []byte(
		"email,name,news,offers\n"+
			"a@b.com,Alice,true,false\n"+
			",Ghost,true,true\n"+
			"c@d.com,Carol,0,1\n"), 0644))

	d := directory.New()
	require.NoError(t, s.Load(d))
	assert.Equal(t, 2, d.Len())

	entry, _ := d.Get("a@b.com")
	assert.Equal(t, []string{"news"}, entry.SortedTags())
	entry, _ = d.Get("c@d.com")
	assert.Equal(t, []string{"offers"}, entry.SortedTags())
}

func TestLoadEmptyFileIsError(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path, nil, 0644))

	d := directory.New()
	assert.ErrorIs(t, s.Load(d), ErrNoHeader)
}

func TestSaveDropsRemovedSubscribers(t *testing.T) {
	s := tempStore(t)
	d := directory.New()
	d.Upsert("a@b.com", "Alice", []string{"news"})
	d.Upsert("c@d.com", "Carol", []string{"news"})
	require.NoError(t, s.Save(d))

	d.Remove("a@b.com")
	require.NoError(t, s.Save(d))

	reloaded := directory.New()
	require.NoError(t, s.Load(reloaded))
	_, ok := reloaded.Get("a@b.com")
	assert.False(t, ok)
	assert.Equal(t, 1, reloaded.Len())
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	d := directory.New()
	d.Upsert("a@b.com", "Alice", []string{"news"})
	require.NoError(t, s.Save(d))

	files, err := os.ReadDir(filepath.Dir(s.Path))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Base(s.Path), files[0].Name())
}
