package transfer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/stellar/evm-batch-transfer/internal/utils"
)

// NativeDecimals is the precision of the native currency of EVM chains (1 ether = 10^18 wei).
const NativeDecimals int32 = 18

// MaxDecimals bounds the precision of an asset, since a uint256 holds at most 78 decimal digits.
const MaxDecimals int32 = 77

// ParseAmount converts a positive decimal amount into the smallest unit of an asset with the given precision.
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("invalid asset decimals %d", decimals)
	}

	amount = strings.TrimSpace(amount)
	if err := utils.ValidateAmount(amount); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	scaled := value.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("the provided amount %s has more than %d decimal places", amount, decimals)
	}

	value256 := scaled.BigInt()
	if value256.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("the provided amount %s cannot be represented in the smallest unit of the asset", amount)
	}

	return value256, nil
}

// FormatAmount renders an amount expressed in the smallest unit of an asset as a decimal string.
func FormatAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}
