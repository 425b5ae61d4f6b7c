// Package chain talks to an EVM JSON-RPC node: it queries nonces, fees, balances and ERC-20 metadata, signs and submits
// transfers and waits for their receipts.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	// DefaultNativeGasLimit is the gas limit of a plain value transfer.
	DefaultNativeGasLimit uint64 = 21000
	// DefaultTokenGasLimit is the gas limit used for ERC-20 `transfer` calls.
	DefaultTokenGasLimit uint64 = 50000
)

// DefaultFallbackGasPrice is used when the node cannot provide a gas price quote: 10 gwei.
var DefaultFallbackGasPrice = big.NewInt(10_000_000_000)

// Client is the set of chain operations needed to dispatch transfers.
type Client interface {
	ChainID() *big.Int
	// TransactionCount returns the pending transaction count of the address, which is the next nonce to be used.
	TransactionCount(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, contract, owner common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, contract common.Address) (uint8, error)
	TokenSymbol(ctx context.Context, contract common.Address) (string, error)
	CodeAt(ctx context.Context, contract common.Address) ([]byte, error)
	// SendTransfer signs and submits the transfer, returning the hash of the submitted transaction.
	SendTransfer(ctx context.Context, tx TransferTx) (common.Hash, error)
	// WaitForConfirmation blocks until the transaction is included in a block. A reverted transaction returns the
	// receipt together with ErrTransactionReverted.
	WaitForConfirmation(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// TransferTx describes a native or ERC-20 transfer to be signed by PrivateKey. Nonce, GasLimit and GasPrice are
// optional overrides: when absent the client fetches the pending nonce, uses the default gas limit for the transfer kind
// and asks the node for a gas price.
type TransferTx struct {
	PrivateKey *ecdsa.PrivateKey
	To         common.Address
	// Amount is expressed in the smallest unit of the asset (wei for native transfers).
	Amount *big.Int
	// Token is the ERC-20 contract address. Nil means a native transfer.
	Token    *common.Address
	Nonce    *uint64
	GasLimit uint64
	GasPrice *big.Int
}

func (tx TransferTx) IsNative() bool {
	return tx.Token == nil
}

func (tx TransferTx) Validate() error {
	if tx.PrivateKey == nil {
		return fmt.Errorf("private key cannot be nil")
	}

	if tx.To == (common.Address{}) {
		return fmt.Errorf("recipient cannot be the zero address")
	}

	if tx.Amount == nil || tx.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}

	if tx.Token != nil && *tx.Token == (common.Address{}) {
		return fmt.Errorf("token contract cannot be the zero address")
	}

	return nil
}

func (tx TransferTx) defaultGasLimit() uint64 {
	if tx.IsNative() {
		return DefaultNativeGasLimit
	}
	return DefaultTokenGasLimit
}
