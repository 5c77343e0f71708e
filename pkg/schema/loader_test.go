package schema

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
fields:
  - key: membership_type
    label: Membership type
    input: select
    options:
      full: Full member
      associate: Associate member
  - key: region
    label: Region
`

func writeSchemaFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader(t *testing.T) {
	t.Run("loads extension fields from file", func(t *testing.T) {
		path := writeSchemaFile(t, t.TempDir(), testSchema)

		loader, err := NewLoader(path)
		require.NoError(t, err)
		defer loader.Close()

		ext := loader.Extension()
		require.Contains(t, ext, "membership_type")
		assert.Equal(t, "Membership type", ext["membership_type"].Label)
		assert.Equal(t, InputSelect, ext["membership_type"].Input)
		assert.Equal(t, "Full member", ext["membership_type"].Options["full"])

		reg := loader.Registry(nil)
		assert.True(t, reg.HasAttribute("membership_type"))
		assert.True(t, reg.HasAttribute("region"))
		assert.True(t, reg.HasAttribute("last_name"))
	})

	t.Run("missing file yields empty extension", func(t *testing.T) {
		loader, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		defer loader.Close()

		assert.Empty(t, loader.Extension())
		assert.True(t, loader.Registry(nil).HasAttribute("last_name"))
	})

	t.Run("empty path yields empty extension", func(t *testing.T) {
		loader, err := NewLoader("")
		require.NoError(t, err)
		defer loader.Close()

		assert.Empty(t, loader.Extension())
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := writeSchemaFile(t, t.TempDir(), "fields: {not: [valid")

		_, err := NewLoader(path)
		assert.Error(t, err)
	})

	t.Run("entries without keys are skipped", func(t *testing.T) {
		path := writeSchemaFile(t, t.TempDir(), "fields:\n  - label: No key\n  - key: keyed\n    label: Keyed\n")

		loader, err := NewLoader(path)
		require.NoError(t, err)
		defer loader.Close()

		ext := loader.Extension()
		assert.Len(t, ext, 1)
		assert.Contains(t, ext, "keyed")
	})
}

func TestLoaderWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeSchemaFile(t, dir, testSchema)

	loader, err := NewLoader(path)
	require.NoError(t, err)
	defer loader.Close()

	require.NoError(t, loader.Watch(nil))

	updated := testSchema + "  - key: chapter\n    label: Chapter\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	assert.Eventually(t, func() bool {
		_, ok := loader.Extension()["chapter"]
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
