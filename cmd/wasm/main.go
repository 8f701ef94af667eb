//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/primepath/internal/config"
	"github.com/kittclouds/primepath/internal/logger"
	"github.com/kittclouds/primepath/internal/store"
	"github.com/kittclouds/primepath/pkg/graph"
	"github.com/kittclouds/primepath/pkg/knowledge"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
	"github.com/kittclouds/primepath/pkg/vector"
)

// Version info
const Version = "0.3.0"

// Global state
var (
	cfg         *config.Config
	log         zerolog.Logger
	codec       *pathcode.Codec
	tokens      store.Storer
	svc         *knowledge.Service
	vectorStore *vector.Store
)

func main() {
	if err := setup(config.Default()); err != nil {
		println("[PrimePath] FATAL: setup failed:", err.Error())
	}
	println("[PrimePath] WASM Ready v" + Version)

	js.Global().Set("PrimePath", js.ValueOf(map[string]interface{}{
		"version":            js.FuncOf(getVersion),
		"initialize":         js.FuncOf(initialize),
		"loadGraph":          js.FuncOf(loadGraph),
		"link":               js.FuncOf(link),
		"edgePrime":          js.FuncOf(edgePrime),
		"findPath":           js.FuncOf(findPath),
		"encodePath":         js.FuncOf(encodePath),
		"decode":             js.FuncOf(decode),
		"registerSuperToken": js.FuncOf(registerSuperToken),
		"resolveSuperToken":  js.FuncOf(resolveSuperToken),
		"graphStats":         js.FuncOf(graphStats),
		// Vector Store API
		"initVectors":          js.FuncOf(initVectors),
		"addVector":            js.FuncOf(addVector),
		"searchVectors":        js.FuncOf(searchVectors),
		"buildSimilarityGraph": js.FuncOf(buildSimilarityGraph),
		"saveVectors":          js.FuncOf(saveVectors),
	}))

	select {}
}

// setup (re)builds the engine from c. The browser console receives stderr.
func setup(c *config.Config) error {
	l, err := logger.NewWithWriter(c.Log, os.Stderr)
	if err != nil {
		return err
	}

	reg := primes.NewRegistry(c.Registry, primes.WithLogger(l))
	if err := reg.Preseed(); err != nil {
		return err
	}
	cd, err := pathcode.NewCodec(reg, c.Codec, pathcode.WithLogger(l))
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStoreWithDSN(c.Store.DSN)
	if err != nil {
		return err
	}

	if tokens != nil {
		tokens.Close()
	}
	cfg, log, codec, tokens = c, l, cd, st
	svc = knowledge.NewService(nil, reg, cd, st, knowledge.WithLogger(l))
	return nil
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize resets the engine.
// Args: [configJSON string] - optional, same keys as the YAML config
func initialize(this js.Value, args []js.Value) interface{} {
	c := config.Default()
	if len(args) > 0 && args[0].String() != "" {
		// JSON is valid YAML
		if err := yaml.Unmarshal([]byte(args[0].String()), c); err != nil {
			return errorMsg("invalid config json: " + err.Error())
		}
	}
	if err := c.Validate(); err != nil {
		return errorResult(err)
	}
	if err := setup(c); err != nil {
		return errorResult(err)
	}
	vectorStore = nil
	return successResult("initialized")
}

// loadGraph replaces the graph.
// Args: [snapshotJSON string] - {"nodes":[...],"edges":[{"source","target","weight"}]}
func loadGraph(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 1 {
		return errorMsg("requires 1 arg: snapshotJSON")
	}
	var snap graph.Snapshot
	if err := json.Unmarshal([]byte(args[0].String()), &snap); err != nil {
		return errorMsg("invalid graph json: " + err.Error())
	}
	svc.ReplaceGraph(snap)
	return jsonResult(map[string]interface{}{
		"nodes": len(snap.Nodes),
		"edges": len(snap.Edges),
	})
}

// link: [a string, b string, weight number]
func link(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 2 {
		return errorMsg("requires 2+ args: a, b, [weight]")
	}
	weight := 1.0
	if len(args) > 2 {
		weight = args[2].Float()
	}
	if err := svc.Link(args[0].String(), args[1].String(), weight); err != nil {
		return errorResult(err)
	}
	return successResult("linked")
}

// edgePrime: [source string, target string]
func edgePrime(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 2 {
		return errorMsg("requires 2 args: source, target")
	}
	source, target := args[0].String(), args[1].String()
	p, err := svc.EdgePrime(source, target)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"source":    source,
		"target":    target,
		"neighbors": svc.SortedNeighbors(source),
		"prime":     p.String(),
	})
}

// findPath: [from string, to string]
func findPath(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 2 {
		return errorMsg("requires 2 args: from, to")
	}
	path, err := svc.FindPath(args[0].String(), args[1].String())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{"path": path})
}

// encodePath: [labelsJSON string]
func encodePath(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	labels, errRes := labelsArg(args)
	if errRes != nil {
		return errRes
	}
	pc, ps, err := svc.EncodeNodePath(labels)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"pathCode":   pc,
		"edgePrimes": decimals(ps),
	})
}

// decode: [code string, depth int]
func decode(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 2 {
		return errorMsg("requires 2 args: code (decimal string), depth")
	}
	var pc pathcode.PathCode
	raw, _ := json.Marshal(map[string]interface{}{"code": args[0].String(), "depth": args[1].Int()})
	if err := json.Unmarshal(raw, &pc); err != nil {
		return errorResult(err)
	}
	ps, err := svc.Decode(pc)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{"primes": decimals(ps)})
}

// registerSuperToken: [labelsJSON string, claim string]
func registerSuperToken(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	labels, errRes := labelsArg(args)
	if errRes != nil {
		return errRes
	}
	claim := ""
	if len(args) > 1 {
		claim = args[1].String()
	}
	tok, err := svc.RegisterSuperToken(labels, claim)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(tok)
}

// resolveSuperToken: [id string]
func resolveSuperToken(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if len(args) < 1 {
		return errorMsg("requires 1 arg: id")
	}
	res, err := svc.ResolveSuperToken(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"token":   res.Token,
		"decoded": decimals(res.Decoded),
		"current": decimals(res.Current),
		"stale":   res.Stale,
	})
}

// graphStats: [] - node and edge counts, orphans and hubs
func graphStats(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	return jsonResult(svc.Stats())
}

// =============================================================================
// Vector Store
// =============================================================================

// initVectors opens the IndexedDB-backed HNSW store
// Args: [] (uses the "primepath" DB and similarity.index_path)
func initVectors(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	fs, err := indexeddb.NewFS(context.Background(), "primepath", indexeddb.Options{})
	if err != nil {
		return errorMsg("failed to create idb fs: " + err.Error())
	}

	vectorStore, err = vector.NewStore(fs, cfg.Similarity.IndexPath)
	if err != nil {
		return errorMsg("failed to load vector store: " + err.Error())
	}
	return jsonResult(map[string]interface{}{"vectors": vectorStore.Len()})
}

// addVector: [label string, vectorJSON string]
func addVector(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorMsg("requires 2 args: label (string), vectorJSON (string)")
	}
	if vectorStore == nil {
		return errorMsg("vector store not initialized")
	}

	var vec []float32
	if err := json.Unmarshal([]byte(args[1].String()), &vec); err != nil {
		return errorMsg("invalid vector json: " + err.Error())
	}
	if err := vectorStore.Add(args[0].String(), vec); err != nil {
		return errorMsg("add failed: " + err.Error())
	}
	return successResult("added")
}

// searchVectors: [vectorJSON string, k int]
// Returns: JSON array of labels
func searchVectors(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorMsg("requires 2 args: vectorJSON (string), k (int)")
	}
	if vectorStore == nil {
		return errorMsg("vector store not initialized")
	}

	var vec []float32
	if err := json.Unmarshal([]byte(args[0].String()), &vec); err != nil {
		return errorMsg("invalid vector json: " + err.Error())
	}
	labels, err := vectorStore.Search(vec, args[1].Int())
	if err != nil {
		return errorMsg("search failed: " + err.Error())
	}
	return jsonResult(labels)
}

// buildSimilarityGraph replaces the graph with k-nearest-neighbor links
// above the threshold.
// Args: [k int, threshold number] - optional, defaults from config
func buildSimilarityGraph(this js.Value, args []js.Value) interface{} {
	if r := notReady(); r != nil {
		return r
	}
	if vectorStore == nil {
		return errorMsg("vector store not initialized")
	}
	k, threshold := cfg.Similarity.K, cfg.Similarity.Threshold
	if len(args) > 0 {
		k = args[0].Int()
	}
	if len(args) > 1 {
		threshold = float32(args[1].Float())
	}

	g := vectorStore.SimilarityGraph(k, threshold)
	svc.ReplaceGraph(g.Snapshot())

	log.Info().
		Int("nodes", g.NodeCount()).
		Int("edges", g.EdgeCount()).
		Msg("similarity graph built")
	return jsonResult(map[string]interface{}{
		"nodes": g.NodeCount(),
		"edges": g.EdgeCount(),
	})
}

// saveVectors persists the index to IndexedDB
func saveVectors(this js.Value, args []js.Value) interface{} {
	if vectorStore == nil {
		return errorMsg("vector store not initialized")
	}
	if err := vectorStore.Save(); err != nil {
		return errorMsg("save failed: " + err.Error())
	}
	return successResult("saved")
}

// =============================================================================
// Helpers
// =============================================================================

// notReady returns an error result while no engine is set up.
func notReady() interface{} {
	if svc == nil || cfg == nil {
		return errorMsg("engine not initialized")
	}
	return nil
}

func labelsArg(args []js.Value) ([]string, interface{}) {
	if len(args) < 1 {
		return nil, errorMsg("requires labelsJSON")
	}
	var labels []string
	if err := json.Unmarshal([]byte(args[0].String()), &labels); err != nil {
		return nil, errorMsg("invalid labels json: " + err.Error())
	}
	return labels, nil
}

func decimals(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

// Helper: Create error result carrying the stable error code
func errorResult(err error) interface{} {
	result := map[string]interface{}{
		"error": err.Error(),
		"code":  pathcode.ErrorCode(err),
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create error result for malformed calls
func errorMsg(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
		"code":  pathcode.CodeInvalidArgument,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return string(jsonBytes)
}
