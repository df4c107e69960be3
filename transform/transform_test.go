package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/irtext"
)

func parse(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	return m
}

func requireValid(t *testing.T, m *ir.Module) {
	t.Helper()
	errs, err := ir.Validate(m)
	require.NoError(t, err)
	require.Empty(t, errs, "module:\n%s", ir.Disassemble(m))
}

// runPass applies run to the parsed source, checks the result is valid and
// returns its text form.
func runPass(t *testing.T, src string, run func(*ir.Module) error) string {
	t.Helper()
	m := parse(t, src)
	require.NoError(t, run(m))
	requireValid(t, m)
	return ir.Disassemble(m)
}
