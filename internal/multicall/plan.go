package multicall

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrLengthMismatch is returned when a result list does not line up with
// its plan.
var ErrLengthMismatch = errors.New("call plan and result list length mismatch")

// Call is one read-only contract call of a plan.
type Call struct {
	Target common.Address
	ABI    *abi.ABI
	Method string
	Args   []interface{}
}

// Plan is an ordered list of calls. Results are returned in the same order.
type Plan []Call

// Add appends a call to the plan.
func (p *Plan) Add(target common.Address, contractABI *abi.ABI, method string, args ...interface{}) {
	*p = append(*p, Call{Target: target, ABI: contractABI, Method: method, Args: args})
}

func (c Call) pack() ([]byte, error) {
	if c.ABI == nil {
		return nil, fmt.Errorf("call %s: abi is nil", c.Method)
	}
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", c.Method, err)
	}
	return data, nil
}

// Result is the outcome of one call: either OK with decoded values, or
// failed.
type Result struct {
	ok     bool
	values []interface{}
}

// Ok builds a successful result.
func Ok(values ...interface{}) Result {
	return Result{ok: true, values: values}
}

// Failed builds a failed result.
func Failed() Result {
	return Result{}
}

// OK reports whether the call succeeded and decoded.
func (r Result) OK() bool {
	return r.ok
}

// Values returns the decoded outputs of a successful call.
func (r Result) Values() []interface{} {
	return r.values
}

// Uint returns the first output as an integer. It reports false when the
// call failed or the output is not an integer.
func (r Result) Uint() (*big.Int, bool) {
	if !r.ok || len(r.values) == 0 {
		return nil, false
	}
	v, err := asBigInt(r.values[0])
	if err != nil {
		return nil, false
	}
	return v, true
}

// UintOrZero returns the first output as an integer, or zero when the call
// failed.
func (r Result) UintOrZero() *big.Int {
	if v, ok := r.Uint(); ok {
		return v
	}
	return new(big.Int)
}

// Pair is a call of a plan together with its result.
type Pair struct {
	Call   Call
	Result Result
}

// Zip pairs plan entries with results by position.
func Zip(plan Plan, results []Result) ([]Pair, error) {
	if len(plan) != len(results) {
		return nil, fmt.Errorf("%w: %d calls, %d results", ErrLengthMismatch, len(plan), len(results))
	}
	pairs := make([]Pair, len(plan))
	for i := range plan {
		pairs[i] = Pair{Call: plan[i], Result: results[i]}
	}
	return pairs, nil
}

// Chunk splits a plan into consecutive chunks of at most size calls.
func Chunk(plan Plan, size int) ([]Plan, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	chunks := make([]Plan, 0, (len(plan)+size-1)/size)
	for start := 0; start < len(plan); start += size {
		end := start + size
		if end > len(plan) {
			end = len(plan)
		}
		chunks = append(chunks, plan[start:end])
	}
	return chunks, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
