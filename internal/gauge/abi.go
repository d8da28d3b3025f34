package gauge

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const controllerABIJSON = `[
  {"inputs": [], "name": "get_total_weight", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "addr", "type": "address"}], "name": "get_gauge_weight", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20SupplyABIJSON = `[
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const (
	methodTotalWeight = "get_total_weight"
	methodGaugeWeight = "get_gauge_weight"
	methodTotalSupply = "totalSupply"
)

var (
	controllerABI     abi.ABI
	controllerABIOnce sync.Once
	controllerABIErr  error
	supplyABI         abi.ABI
	supplyABIOnce     sync.Once
	supplyABIErr      error
)

// ControllerABI returns the gauge controller read ABI.
func ControllerABI() (*abi.ABI, error) {
	controllerABIOnce.Do(func() {
		controllerABI, controllerABIErr = abi.JSON(strings.NewReader(controllerABIJSON))
	})
	return &controllerABI, controllerABIErr
}

// SupplyABI returns the ERC20 totalSupply ABI.
func SupplyABI() (*abi.ABI, error) {
	supplyABIOnce.Do(func() {
		supplyABI, supplyABIErr = abi.JSON(strings.NewReader(erc20SupplyABIJSON))
	})
	return &supplyABI, supplyABIErr
}
