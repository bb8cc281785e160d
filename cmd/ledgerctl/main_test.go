package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestSeedAndListAgainstFileStore(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")

	assert.Contains(t, run(t, "seed"), "seeded 3 products")
	assert.Contains(t, run(t, "seed"), "seeded 0 products")

	out := run(t, "products", "list", "widget")
	assert.Contains(t, out, "P001")
	assert.Contains(t, out, "P002")
	assert.NotContains(t, out, "P003")

	out = run(t, "products", "adjust", "P003", "-500")
	assert.Contains(t, out, "P003")

	out = run(t, "report", "inventory")
	assert.Contains(t, out, "low stock (<= 5): [P003]")
}

func TestAddProductEphemeral(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out := run(t, "--ephemeral", "products", "add", "Sprocket", "--sku", "S-1", "--stock", "4", "--price", "2.5")
	assert.Contains(t, out, "S-1")
	assert.Contains(t, out, "2.50")
}

func TestTokenNeedsSecret(t *testing.T) {
	t.Setenv("API_TOKEN_SECRET", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())

	t.Setenv("API_TOKEN_SECRET", "k")
	assert.NotEmpty(t, run(t, "token", "--ttl", "1h"))
}
