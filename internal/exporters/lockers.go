package exporters

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"gaugeScope/internal/config"
	"gaugeScope/internal/multicall"
)

const votingEscrowABIJSON = `[
  {"inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}], "name": "locked", "outputs": [{"name": "amount", "type": "int128"}, {"name": "end", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	votingEscrowABI     abi.ABI
	votingEscrowABIOnce sync.Once
	votingEscrowABIErr  error
)

// VotingEscrowABI returns the veCRV read ABI.
func VotingEscrowABI() (*abi.ABI, error) {
	votingEscrowABIOnce.Do(func() {
		votingEscrowABI, votingEscrowABIErr = abi.JSON(strings.NewReader(votingEscrowABIJSON))
	})
	return &votingEscrowABI, votingEscrowABIErr
}

// LockerBalance is one entry of lockers.json.
type LockerBalance struct {
	Name             string  `json:"name"`
	VeBalance        float64 `json:"veBalance"`
	CrvLockedBalance float64 `json:"crvLockedBalance"`
}

// BuildLockersPlan queries balanceOf and locked for every locker.
func BuildLockersPlan(veCRV common.Address, lockers []config.Locker) (multicall.Plan, error) {
	veABI, err := VotingEscrowABI()
	if err != nil {
		return nil, fmt.Errorf("parse voting escrow abi: %w", err)
	}
	plan := make(multicall.Plan, 0, 2*len(lockers))
	for _, locker := range lockers {
		plan.Add(veCRV, veABI, "balanceOf", locker.Address)
		plan.Add(veCRV, veABI, "locked", locker.Address)
	}
	return plan, nil
}

// LockerBalances reads the paired results of BuildLockersPlan. Failed
// calls count as zero.
func LockerBalances(pairs []multicall.Pair, lockers []config.Locker) ([]LockerBalance, error) {
	if len(pairs) != 2*len(lockers) {
		return nil, fmt.Errorf("%w: %d pairs for %d lockers", multicall.ErrLengthMismatch, len(pairs), len(lockers))
	}
	out := make([]LockerBalance, 0, len(lockers))
	for i, locker := range lockers {
		// locked returns (amount, end); Uint reads the first output.
		ve := pairs[2*i].Result.UintOrZero()
		locked := pairs[2*i+1].Result.UintOrZero()
		out = append(out, LockerBalance{
			Name:             locker.Name,
			VeBalance:        ether(ve),
			CrvLockedBalance: ether(locked),
		})
	}
	return out, nil
}

func ether(v *big.Int) float64 {
	return decimal.NewFromBigInt(v, -18).InexactFloat64()
}
