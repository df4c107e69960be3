package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `print_ir_after_all: true
passes:
  - name: polyfill
    options:
      int_div_mod: false
  - name: simplify_pointers
  - name: value_to_let
`

const tomlConfig = `print_ir_after_all = true

[[passes]]
name = "polyfill"

[passes.options]
int_div_mod = false

[[passes]]
name = "simplify_pointers"

[[passes]]
name = "value_to_let"
`

func TestParseConfig(t *testing.T) {
	tests := []struct {
		format string
		data   string
	}{
		{FormatYAML, yamlConfig},
		{FormatTOML, tomlConfig},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ParseConfig([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.True(t, c.PrintIRAfterAll)
			assert.False(t, c.NoValidate)
			require.Len(t, c.Passes, 3)
			assert.Equal(t, "polyfill", c.Passes[0].Name)
			assert.Equal(t, false, c.Passes[0].Options["int_div_mod"])

			m, err := c.Manager()
			require.NoError(t, err)
			require.Len(t, m.Passes(), 3)
			assert.Equal(t, PolyfillOptions{ConvF32ToIU32: true}, m.Passes()[0].(*polyfillPass).opts)
			assert.Equal(t, "value_to_let", m.Passes()[2].Name())
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("passes:\n  - options: {}\n"), FormatYAML)
	assert.EqualError(t, err, "pass 0 has no name")

	_, err = ParseConfig([]byte("pipeline: []\n"), FormatYAML)
	assert.Error(t, err)

	_, err = ParseConfig([]byte("verbose = true\n"), FormatTOML)
	assert.Error(t, err)

	_, err = ParseConfig(nil, "json")
	assert.Error(t, err)

	c, err := ParseConfig([]byte("passes:\n  - name: fold_constants\n"), FormatYAML)
	require.NoError(t, err)
	_, err = c.Manager()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "pipeline.yml")
	require.NoError(t, os.WriteFile(yml, []byte(yamlConfig), 0o600))
	c, err := LoadConfig(yml)
	require.NoError(t, err)
	assert.Len(t, c.Passes, 3)

	tml := filepath.Join(dir, "pipeline.toml")
	require.NoError(t, os.WriteFile(tml, []byte(tomlConfig), 0o600))
	c, err = LoadConfig(tml)
	require.NoError(t, err)
	assert.Len(t, c.Passes, 3)

	_, err = LoadConfig(filepath.Join(dir, "pipeline.json"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
