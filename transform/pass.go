package transform

import (
	"bytes"
	"context"
	"sort"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/gogpu/shir/ir"
)

// Pass transforms a module in place.
type Pass interface {
	// Name returns the registry name of the pass.
	Name() string
	// Run applies the pass to m.
	Run(ctx context.Context, m *ir.Module) error
}

// Options holds undecoded pass options as read from a configuration file.
type Options map[string]any

// Factory creates a pass from its options.
type Factory func(opts Options) (Pass, error)

var registry = map[string]Factory{}

// Register makes a pass available under name. It panics on duplicates.
func Register(name string, f Factory) {
	if _, dup := registry[name]; dup {
		panic("transform: pass " + name + " registered twice")
	}
	registry[name] = f
}

// New creates the pass registered under name.
func New(name string, opts Options) (Pass, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.New("unknown pass %q", name)
	}
	p, err := f(opts)
	if err != nil {
		return nil, errors.Wrap(err, "pass %v", name)
	}
	return p, nil
}

// Names returns the registered pass names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// decodeOptions fills dst from opts. Keys are matched against the yaml tags
// of dst; unknown keys are rejected.
func decodeOptions(opts Options, dst any) error {
	if len(opts) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(opts))
	if err != nil {
		return errors.Wrap(err, "encode options")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode options")
	}
	return nil
}

// funcPass adapts a function to the Pass interface.
type funcPass struct {
	name string
	run  func(m *ir.Module) error
}

func (p funcPass) Name() string { return p.name }

func (p funcPass) Run(ctx context.Context, m *ir.Module) error {
	return p.run(m)
}

// noOptions wraps a factory for passes that take no options.
func noOptions(name string, run func(m *ir.Module) error) Factory {
	return func(opts Options) (Pass, error) {
		if err := decodeOptions(opts, &struct{}{}); err != nil {
			return nil, err
		}
		return funcPass{name: name, run: run}, nil
	}
}

func init() {
	Register("simplify_pointers", noOptions("simplify_pointers", SimplifyPointers))
	Register("value_to_let", noOptions("value_to_let", ValueToLet))
	Register("remove_phonies", noOptions("remove_phonies", RemovePhonies))
	Register("dce", noOptions("dce", DeadCodeElimination))
	Register("polyfill", newPolyfillPass)
}
