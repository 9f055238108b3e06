package docmerge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docmerge/pkg/store"
)

func sampleProfile() *Profile {
	return &Profile{
		Mappings: map[string]FieldMapping{
			"NAME":  NewFieldMapping(true, "first_name", "last_name"),
			"EMAIL": {Candidates: []string{"", "email"}, Count: 4},
		},
		Filename: FilenameSpec{Field1: "last_name", Prefix: "cert_"},
		Archive:  true,
	}
}

func TestProfileYAML(t *testing.T) {
	data, err := MarshalProfile(sampleProfile())
	require.NoError(t, err)
	assert.Contains(t, string(data), "count: 4")

	got, err := UnmarshalProfile(data)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleProfile(), got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalProfile(t *testing.T) {
	data := `
mappings:
  "{NAME}":
    candidates: [first, last]
    combine: true
  CITY:
    candidates: [city, town]
    count: 3
filename:
  field1: last
`
	p, err := UnmarshalProfile([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, FieldMapping{Candidates: []string{"first", "last"}, Count: 2, Combine: true}, p.Mappings["NAME"])
	assert.Equal(t, 3, p.Mappings["CITY"].Count)
	assert.Equal(t, "last", p.Filename.Field1)
	assert.False(t, p.Archive)
}

func TestUnmarshalProfile_KeepsWhitespaceInNames(t *testing.T) {
	data, err := MarshalProfile(&Profile{Mappings: map[string]FieldMapping{
		" NAME ": NewFieldMapping(false, "first"),
	}})
	require.NoError(t, err)

	p, err := UnmarshalProfile(data)
	require.NoError(t, err)
	assert.Contains(t, p.Mappings, " NAME ")
	assert.NotContains(t, p.Mappings, "NAME")
}

func TestUnmarshalProfile_Errors(t *testing.T) {
	_, err := UnmarshalProfile([]byte("mappings: [not, a, map]"))
	assert.Error(t, err)

	_, err = UnmarshalProfile([]byte("mappings:\n  A:\n    candidates: [a, b, c, d, e, f]\n"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestProfileKey(t *testing.T) {
	key := ProfileKey([]byte("a,b\n1,2\n"), []byte("template"))
	assert.True(t, strings.HasPrefix(key, "profile:"))
	assert.Len(t, key, len("profile:")+64)

	assert.Equal(t, key, ProfileKey([]byte("a,b\n1,2\n"), []byte("template")))
	assert.NotEqual(t, key, ProfileKey([]byte("a,b\n1,3\n"), []byte("template")))
	assert.NotEqual(t, ProfileKey([]byte("ab"), []byte("c")), ProfileKey([]byte("a"), []byte("bc")))
}

func TestProfileKeyFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "data.csv", []byte("a\n1\n"))
	tmplPath := writeFile(t, dir, "t.docx", []byte("docx"))
	renamed := writeFile(t, dir, "copy.csv", []byte("a\n1\n"))

	key, err := ProfileKeyFiles(csvPath, tmplPath)
	require.NoError(t, err)
	again, err := ProfileKeyFiles(renamed, tmplPath)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	_, err = ProfileKeyFiles(filepath.Join(dir, "missing.csv"), tmplPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveAndLoadProfile(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	_, err := LoadProfile(ctx, s, "profile:none")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, SaveProfile(ctx, s, "profile:k", sampleProfile()))
	got, err := LoadProfile(ctx, s, "profile:k")
	require.NoError(t, err)
	assert.Equal(t, sampleProfile(), got)
}

func TestSaveAndLoadProfile_SQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, SaveProfile(ctx, s, "profile:k", sampleProfile()))
	got, err := LoadProfile(ctx, s, "profile:k")
	require.NoError(t, err)
	assert.Equal(t, sampleProfile(), got)
}

func TestProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, WriteProfileFile(path, sampleProfile()))

	got, err := LoadProfileFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleProfile(), got)

	bad := writeFile(t, t.TempDir(), "bad.yaml", []byte("mappings:\n  A: {count: -1}\n"))
	_, err = LoadProfileFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path="+bad)
	assert.True(t, IsValidationError(err))
}
