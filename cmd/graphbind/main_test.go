package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphbind/internal/language"
)

// quietConfig keeps engine logs out of test output.
func quietConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphbind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (any, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", quietConfig(t)}, args...))
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	out, err := oj.ParseString(stdout.String())
	require.NoError(t, err, stdout.String())
	return out, nil
}

func TestQuery(t *testing.T) {
	got, err := runCLI(t, "query", `query($id: String!) { hero(id: $id) { name power salary } }`, "--variables", `{"id":"h2"}`)
	require.NoError(t, err)

	want := map[string]any{"data": map[string]any{"hero": map[string]any{
		"name":   "Ironclad",
		"power":  "STRENGTH",
		"salary": 7300.5,
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestQuerySelect(t *testing.T) {
	got, err := runCLI(t, "query", `{ heroes { name } }`, "--select", "$.data.heroes[*].name")
	require.NoError(t, err)
	require.Equal(t, []any{"Skyhawk", "Ironclad", "Blink"}, got)
}

func TestQueryOperationName(t *testing.T) {
	got, err := runCLI(t, "query", `query A { city(name: "Gotham") { name } } query B { city(name: "Metro City") { name } }`, "--operation", "B")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"data": map[string]any{"city": map[string]any{"name": "Metro City"}}}, got)
}

func TestQueryFailures(t *testing.T) {
	_, err := runCLI(t, "query", `{ heroes { name }`)
	var syntax *language.Error
	require.ErrorAs(t, err, &syntax)

	_, err = runCLI(t, "query", `{ heroes { name } }`, "--variables", `[1]`)
	require.EqualError(t, err, "--variables must be a JSON object")

	_, err = runCLI(t, "query", `{ heroes { name } }`, "--select", "$[")
	require.ErrorContains(t, err, "--select")

	_, err = runCLI(t, "query")
	require.Error(t, err)
}

func TestTypes(t *testing.T) {
	got, err := runCLI(t, "types")
	require.NoError(t, err)

	byName := map[string]map[string]any{}
	var names []string
	for _, v := range got.([]any) {
		m := v.(map[string]any)
		byName[m["name"].(string)] = m
		names = append(names, m["name"].(string))
	}
	require.IsIncreasing(t, names)
	require.Equal(t, "UNION", byName["SearchResult"]["kind"])
	require.ElementsMatch(t, []any{"Hero", "Villain", "City"}, byName["SearchResult"]["members"])
	require.Equal(t, []any{"FLIGHT", "STRENGTH", "SPEED", "TELEPATHY"}, byName["Power"]["values"])
	require.Contains(t, byName["Hero"]["fields"], "nemeses")
	require.Equal(t, []any{"Person"}, byName["Hero"]["interfaces"])
	require.ElementsMatch(t, []any{"recruit", "raise"}, byName["Mutation"]["fields"])
	require.Equal(t, "SCALAR", byName["BigDecimal"]["kind"])
}

func TestBadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "types"})
	require.ErrorIs(t, cmd.Execute(), os.ErrNotExist)
}

func TestListenStopsOnCancel(t *testing.T) {
	a, err := newApp(quietConfig(t))
	require.NoError(t, err)
	a.cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, listen(ctx, a, nil))
}
