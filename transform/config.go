package transform

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
)

// Config describes a pipeline in a configuration file.
type Config struct {
	NoValidate      bool         `yaml:"no_validate" toml:"no_validate"`
	PrintIRAfterAll bool         `yaml:"print_ir_after_all" toml:"print_ir_after_all"`
	Passes          []PassConfig `yaml:"passes" toml:"passes"`
}

// PassConfig names a registered pass and its options.
type PassConfig struct {
	Name    string  `yaml:"name" toml:"name"`
	Options Options `yaml:"options,omitempty" toml:"options,omitempty"`
}

// Config file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// LoadConfig reads a pipeline configuration. The format is chosen by the
// file extension: .yaml, .yml or .toml.
func LoadConfig(path string) (*Config, error) {
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return nil, errors.New("unsupported config extension: %v", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := ParseConfig(data, format)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}
	return c, nil
}

// ParseConfig decodes a pipeline configuration in the given format.
func ParseConfig(data []byte, format string) (*Config, error) {
	var c Config

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
	default:
		return nil, errors.New("unknown config format %q", format)
	}

	for i, p := range c.Passes {
		if p.Name == "" {
			return nil, errors.New("pass %d has no name", i)
		}
	}
	return &c, nil
}

// Manager builds the pipeline described by c.
func (c *Config) Manager() (*Manager, error) {
	m := NewManager(ManagerOptions{
		SkipValidation:  c.NoValidate,
		PrintIRAfterAll: c.PrintIRAfterAll,
	})
	for _, pc := range c.Passes {
		p, err := New(pc.Name, pc.Options)
		if err != nil {
			return nil, err
		}
		m.Add(p)
	}
	return m, nil
}
