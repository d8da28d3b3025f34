package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// RawAmount is an unscaled on-chain integer carried as a decimal string.
// Upstream APIs sometimes encode these values as JSON numbers; those are
// floored to an integer string on decode.
type RawAmount string

// UnmarshalJSON accepts a string, a number or null.
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(strings.TrimSpace(s))
		return nil
	}
	floored, err := FloorNumber(string(data))
	if err != nil {
		return err
	}
	*a = RawAmount(floored)
	return nil
}

// BigInt parses the amount. Empty amounts are zero.
func (a RawAmount) BigInt() (*big.Int, error) {
	if a == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(string(a), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", string(a))
	}
	return v, nil
}

func (a RawAmount) String() string {
	return string(a)
}

// FloorNumber floors a JSON number literal (possibly fractional or in
// exponent form) to an integer string.
func FloorNumber(literal string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(literal))
	if err != nil {
		return "", fmt.Errorf("parse number %q: %w", literal, err)
	}
	return d.Floor().String(), nil
}
