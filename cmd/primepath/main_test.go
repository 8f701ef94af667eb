package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/primepath/pkg/graph"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
)

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.Bytes(), err
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

func writeGraph(t *testing.T) string {
	t.Helper()
	snap := graph.Snapshot{
		Edges: []graph.SnapshotEdge{
			{Source: "a", Target: "b", Weight: 0.9},
			{Source: "b", Target: "c", Weight: 0.8},
			{Source: "b", Target: "d", Weight: 0.7},
		},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestNthIndexFactor(t *testing.T) {
	out, err := run(t, "nth", "6")
	require.NoError(t, err)
	assert.Equal(t, "13", decode(t, out)["prime"])

	out, err = run(t, "index", "149")
	require.NoError(t, err)
	assert.Equal(t, float64(35), decode(t, out)["index"])

	out, err = run(t, "factor", "1937")
	require.NoError(t, err)
	assert.Equal(t, []any{"13", "149"}, decode(t, out)["factors"])

	_, err = run(t, "nth", "0")
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)

	_, err = run(t, "index", "91")
	assert.ErrorIs(t, err, primes.ErrNotPrime)
	assert.Equal(t, pathcode.CodeNotPrime, pathcode.ErrorCode(err))
}

func TestEncodeDecode(t *testing.T) {
	out, err := run(t, "encode", "--depth-limit", "1", "3", "2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"13","depth":1}`, string(out))

	out, err = run(t, "encode", "--depth-limit", "0", "2", "3", "5")
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"30","depth":0}`, string(out))

	out, err = run(t, "decode", "13", "1")
	require.NoError(t, err)
	assert.Equal(t, []any{"2", "3"}, decode(t, out)["primes"])

	_, err = run(t, "decode", "--", "13", "-1")
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)

	_, err = run(t, "encode", "4")
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)
}

func TestEncodeUsesConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "primepath.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("codec:\n  max_lift_index: 10\n"), 0644))

	out, err := run(t, "--config", cfgPath, "encode", "5", "7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"35","depth":0,"capped":true}`, string(out))
}

func TestEdgePrime(t *testing.T) {
	g := writeGraph(t)

	out, err := run(t, "edge-prime", "--graph", g, "b", "d")
	require.NoError(t, err)
	m := decode(t, out)
	assert.Equal(t, "5", m["prime"])
	assert.Equal(t, []any{"a", "c", "d"}, m["neighbors"])

	_, err = run(t, "edge-prime", "--graph", g, "a", "c")
	assert.ErrorIs(t, err, primes.ErrNotFound)

	_, err = run(t, "edge-prime", "a", "b")
	assert.ErrorIs(t, err, primes.ErrInvalidArgument)
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats", "--graph", writeGraph(t))
	require.NoError(t, err)
	m := decode(t, out)
	assert.Equal(t, float64(4), m["nodes"])
	assert.Equal(t, float64(6), m["edges"])
	assert.Equal(t, []any{"b"}, m["hubs"])
	assert.Equal(t, float64(1), m["centrality"])
}

func TestPathAndResolve(t *testing.T) {
	g := writeGraph(t)
	t.Setenv("PRIMEPATH_STORE_DSN", filepath.Join(t.TempDir(), "tokens.db"))

	out, err := run(t, "path", "--graph", g, "--register", "--claim", "a reaches d", "a", "d")
	require.NoError(t, err)

	var resp struct {
		Path       []string          `json:"path"`
		EdgePrimes []string          `json:"edgePrimes"`
		PathCode   pathcode.PathCode `json:"pathCode"`
		TokenID    string            `json:"tokenId"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, []string{"a", "b", "d"}, resp.Path)
	assert.Equal(t, []string{"2", "5"}, resp.EdgePrimes)
	assert.Equal(t, "29@1", resp.PathCode.String())
	require.NotEmpty(t, resp.TokenID)

	out, err = run(t, "resolve", "--graph", g, resp.TokenID)
	require.NoError(t, err)
	m := decode(t, out)
	assert.Equal(t, false, m["stale"])
	assert.Equal(t, []any{"2", "5"}, m["decoded"])

	out, err = run(t, "path", "--graph", g, "--nodes", "d", "b", "c")
	require.NoError(t, err)
	m = decode(t, out)
	assert.Equal(t, []any{"d", "b", "c"}, m["path"])
	assert.Equal(t, []any{"2", "3"}, m["edgePrimes"])
	assert.NotContains(t, m, "tokenId")

	_, err = run(t, "path", "--graph", g, "a", "zzz")
	assert.ErrorIs(t, err, primes.ErrNotFound)
}
