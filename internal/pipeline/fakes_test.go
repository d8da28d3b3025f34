package pipeline

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"gaugeScope/internal/multicall"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type callArgs struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

// fakeChain is a JSON-RPC server answering the latest block lookup and
// Multicall3 aggregate3 calls. respond decides the outcome of each inner
// call.
type fakeChain struct {
	t         *testing.T
	timestamp uint64
	respond   func(call multicall.Call3) multicall.Result3

	mu     sync.Mutex
	chunks []int
}

func newFakeChain(t *testing.T, timestamp uint64, respond func(call multicall.Call3) multicall.Result3) (*fakeChain, *httptest.Server) {
	t.Helper()
	fc := &fakeChain{t: t, timestamp: timestamp, respond: respond}
	srv := httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(srv.Close)
	return fc, srv
}

func (f *fakeChain) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("decode rpc request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var result interface{}
	switch req.Method {
	case "eth_getBlockByNumber":
		result = map[string]string{
			"number":    "0x10",
			"timestamp": hexutil.EncodeUint64(f.timestamp),
		}
	case "eth_call":
		out, err := f.call(req.Params)
		if err != nil {
			f.t.Errorf("eth_call: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result = hexutil.Bytes(out)
	default:
		f.t.Errorf("unexpected rpc method %s", req.Method)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (f *fakeChain) call(params []json.RawMessage) ([]byte, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing call params")
	}
	var args callArgs
	if err := json.Unmarshal(params[0], &args); err != nil {
		return nil, err
	}
	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	if len(input) < 4 {
		return nil, fmt.Errorf("short calldata")
	}

	mcABI, err := multicall.ABI()
	if err != nil {
		return nil, err
	}
	method := mcABI.Methods["aggregate3"]
	decoded, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, err
	}
	calls := *abi.ConvertType(decoded[0], new([]multicall.Call3)).(*[]multicall.Call3)

	f.mu.Lock()
	f.chunks = append(f.chunks, len(calls))
	f.mu.Unlock()

	out := make([]multicall.Result3, len(calls))
	for i, call := range calls {
		out[i] = f.respond(call)
	}
	return method.Outputs.Pack(out)
}

func (f *fakeChain) chunkSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.chunks...)
}

// returnUint packs value as the output of method.
func returnUint(t *testing.T, contract *abi.ABI, method string, values ...interface{}) multicall.Result3 {
	t.Helper()
	data, err := contract.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Errorf("pack %s: %v", method, err)
		return multicall.Result3{}
	}
	return multicall.Result3{Success: true, ReturnData: data}
}

func selectorOf(t *testing.T, contract *abi.ABI, method string) []byte {
	t.Helper()
	m, ok := contract.Methods[method]
	if !ok {
		t.Fatalf("unknown method %s", method)
	}
	return m.ID
}

func bigString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer %s", s)
	}
	return v
}

// newRESTServer serves fixed bodies by path. Bodies may reference the
// server's own URL with {{base}}.
func newRESTServer(t *testing.T, routes map[string]string, statuses map[string]int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, ok := statuses[r.URL.Path]; ok {
			w.WriteHeader(status)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{base}}", srv.URL)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// memorySink keeps documents in memory, keyed by file name.
type memorySink struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func newMemorySink() *memorySink {
	return &memorySink{docs: make(map[string]json.RawMessage)}
}

func (m *memorySink) Put(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = data
	return nil
}

func (m *memorySink) get(name string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[name]
	return data, ok
}
