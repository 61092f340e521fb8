package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("omitted sections use defaults", func(t *testing.T) {
		path := writeRuleFile(t, `
[[signals]]
label = "custom"
pattern = "revisar inventario"
weight = 70
description = "Inventory lookup"
`)
		rs, regs, err := LoadFile(path)
		require.NoError(t, err)

		require.Len(t, rs.Signals, 1)
		assert.Equal(t, "custom", rs.Signals[0].Label)
		assert.Equal(t, 70, rs.Signals[0].Weight)
		assert.Equal(t, 1, regs.Signals.Len())

		assert.Equal(t, len(DefaultSafePatterns()), regs.Safe.Len())
		assert.Equal(t, len(DefaultThoughtPatterns()), regs.Thoughts.Len())
		assert.Equal(t, len(DefaultWholeMessagePatterns()), regs.WholeMessage.Len())
	})

	t.Run("empty section disables table", func(t *testing.T) {
		path := writeRuleFile(t, `
safe = []
whole_message = []
`)
		_, regs, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 0, regs.Safe.Len())
		assert.Equal(t, 0, regs.WholeMessage.Len())
		assert.Equal(t, len(DefaultSignals()), regs.Signals.Len())
	})

	t.Run("all sections", func(t *testing.T) {
		path := writeRuleFile(t, `
[[signals]]
label = "s"
pattern = "uno"
weight = 10

[[safe]]
label = "v"
pattern = "^hola"

[[thoughts]]
label = "t"
pattern = "dos"

[[whole_message]]
label = "w"
pattern = "tres"
`)
		_, regs, err := LoadFile(path)
		require.NoError(t, err)
		for _, reg := range regs.All() {
			assert.Equal(t, 1, reg.Len(), reg.Name())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
		assert.ErrorIs(t, err, ErrInvalidRuleFile)
	})

	t.Run("directory", func(t *testing.T) {
		_, _, err := LoadFile(t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidRuleFile)
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writeRuleFile(t, `[[signals]`)
		_, _, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrInvalidRuleFile)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeRuleFile(t, `
[[signals]]
label = "typo"
pattern = "x"
wieght = 3
`)
		_, _, err := LoadFile(path)
		require.ErrorIs(t, err, ErrInvalidRuleFile)
		assert.Contains(t, err.Error(), "wieght")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := writeRuleFile(t, `
[[thoughts]]
label = "broken"
pattern = "[a-"
`)
		_, _, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrInvalidRuleFile)
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})
}

func TestParse_Empty(t *testing.T) {
	rs, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleSet(), rs)
}
