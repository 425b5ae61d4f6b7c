package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/utils"
)

const (
	DefaultHTTPTimeout              = 10 * time.Second
	DefaultConfirmationTimeout      = 2 * time.Minute
	DefaultConfirmationPollInterval = time.Second
	DefaultRetryAttempts            = 3
	DefaultRetryDelay               = 500 * time.Millisecond
)

// ethBackend is the subset of *ethclient.Client used by EthClient.
type ethBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Ensuring that *ethclient.Client is implementing ethBackend interface.
var _ ethBackend = (*ethclient.Client)(nil)

type EthClientOptions struct {
	RPCURL                   string
	HTTPTimeout              time.Duration
	ConfirmationTimeout      time.Duration
	ConfirmationPollInterval time.Duration
	RetryAttempts            uint
	RetryDelay               time.Duration
}

func (opts EthClientOptions) Validate() error {
	if err := utils.ValidateRPCURL(opts.RPCURL); err != nil {
		return fmt.Errorf("validating rpc url: %w", err)
	}
	if opts.HTTPTimeout < 0 || opts.ConfirmationTimeout < 0 || opts.ConfirmationPollInterval < 0 || opts.RetryDelay < 0 {
		return fmt.Errorf("timeouts and intervals cannot be negative")
	}
	return nil
}

// withDefaults fills the zero values with the package defaults.
func (opts EthClientOptions) withDefaults() EthClientOptions {
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = DefaultHTTPTimeout
	}
	if opts.ConfirmationTimeout == 0 {
		opts.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if opts.ConfirmationPollInterval == 0 {
		opts.ConfirmationPollInterval = DefaultConfirmationPollInterval
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return opts
}

// EthClient implements Client on top of go-ethereum's ethclient.
type EthClient struct {
	backend ethBackend
	chainID *big.Int
	signer  types.Signer
	opts    EthClientOptions
}

var _ Client = (*EthClient)(nil)

// NewEthClient dials the RPC endpoint and reads the chain id, which is used to sign every transaction.
func NewEthClient(ctx context.Context, opts EthClientOptions) (*EthClient, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}
	opts = opts.withDefaults()

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
		Timeout: opts.HTTPTimeout,
	}
	rpcClient, err := rpc.DialOptions(ctx, opts.RPCURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dialing rpc endpoint: %w", err)
	}

	return newEthClient(ctx, ethclient.NewClient(rpcClient), opts)
}

func newEthClient(ctx context.Context, backend ethBackend, opts EthClientOptions) (*EthClient, error) {
	opts = opts.withDefaults()
	c := &EthClient{backend: backend, opts: opts}

	chainID, err := withRetry(ctx, c, "eth_chainId", func() (*big.Int, error) {
		return backend.ChainID(ctx)
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("getting chain id: %w", err)
	}

	c.chainID = chainID
	c.signer = types.LatestSignerForChainID(chainID)
	return c, nil
}

func (c *EthClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *EthClient) TransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	return withRetry(ctx, c, "eth_getTransactionCount", func() (uint64, error) {
		return c.backend.PendingNonceAt(ctx, address)
	})
}

func (c *EthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return withRetry(ctx, c, "eth_gasPrice", func() (*big.Int, error) {
		return c.backend.SuggestGasPrice(ctx)
	})
}

func (c *EthClient) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return withRetry(ctx, c, "eth_getBalance", func() (*big.Int, error) {
		return c.backend.BalanceAt(ctx, address, nil)
	})
}

func (c *EthClient) CodeAt(ctx context.Context, contract common.Address) ([]byte, error) {
	return withRetry(ctx, c, "eth_getCode", func() ([]byte, error) {
		return c.backend.CodeAt(ctx, contract, nil)
	})
}

func (c *EthClient) TokenBalance(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	data, err := packBalanceOf(owner)
	if err != nil {
		return nil, err
	}

	output, err := c.call(ctx, contract, data)
	if err != nil {
		return nil, fmt.Errorf("calling balanceOf: %w", err)
	}

	return unpackBalanceOf(output)
}

func (c *EthClient) TokenDecimals(ctx context.Context, contract common.Address) (uint8, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("packing decimals call: %w", err)
	}

	output, err := c.call(ctx, contract, data)
	if err != nil {
		return 0, fmt.Errorf("calling decimals: %w", err)
	}

	return unpackDecimals(output)
}

func (c *EthClient) TokenSymbol(ctx context.Context, contract common.Address) (string, error) {
	data, err := erc20ABI.Pack("symbol")
	if err != nil {
		return "", fmt.Errorf("packing symbol call: %w", err)
	}

	output, err := c.call(ctx, contract, data)
	if err != nil {
		return "", fmt.Errorf("calling symbol: %w", err)
	}

	return unpackSymbol(output)
}

func (c *EthClient) call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	return withRetry(ctx, c, "eth_call", func() ([]byte, error) {
		return c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	})
}

// SendTransfer builds a legacy transaction, signs it with the chain id of the endpoint and submits it. The submission
// itself is never retried, so a failed submission does not consume the nonce.
func (c *EthClient) SendTransfer(ctx context.Context, transferTx TransferTx) (common.Hash, error) {
	if err := transferTx.Validate(); err != nil {
		return common.Hash{}, fmt.Errorf("validating transfer: %w", err)
	}

	var nonce uint64
	if transferTx.Nonce != nil {
		nonce = *transferTx.Nonce
	} else {
		var err error
		if nonce, err = c.TransactionCount(ctx, addressFromKey(transferTx)); err != nil {
			return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
		}
	}

	gasLimit := transferTx.GasLimit
	if gasLimit == 0 {
		gasLimit = transferTx.defaultGasLimit()
	}

	gasPrice := transferTx.GasPrice
	if gasPrice == nil {
		var err error
		if gasPrice, err = c.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
		}
	}

	to := transferTx.To
	value := transferTx.Amount
	var data []byte
	if !transferTx.IsNative() {
		var err error
		if data, err = packTransfer(transferTx.To, transferTx.Amount); err != nil {
			return common.Hash{}, err
		}
		to = *transferTx.Token
		value = big.NewInt(0)
	}

	unsignedTx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(unsignedTx, c.signer, transferTx.PrivateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}

	if err = c.backend.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, NewRPCError("eth_sendRawTransaction", err)
	}

	return signedTx.Hash(), nil
}

// WaitForConfirmation polls the transaction receipt until it is available or the confirmation timeout elapses.
func (c *EthClient) WaitForConfirmation(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ConfirmationTimeout)
	defer cancel()

	receipt, err := retry.DoWithData(
		func() (*types.Receipt, error) {
			return c.backend.TransactionReceipt(waitCtx, txHash)
		},
		retry.Context(waitCtx),
		retry.Attempts(0), // until the context is done
		retry.Delay(c.opts.ConfirmationPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ethereum.NotFound) || isTransient(err)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		}
		if waitCtx.Err() != nil {
			return nil, fmt.Errorf("waiting for transaction %s after %s: %w", txHash.Hex(), c.opts.ConfirmationTimeout, ErrConfirmationTimeout)
		}
		return nil, NewRPCError("eth_getTransactionReceipt", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s in block %v: %w", txHash.Hex(), receipt.BlockNumber, ErrTransactionReverted)
	}

	return receipt, nil
}

func (c *EthClient) Close() {
	c.backend.Close()
}

// withRetry runs a read-only call, retrying transient failures with an exponential back-off. Errors returned by the
// node itself are not retried.
func withRetry[T any](ctx context.Context, c *EthClient, method string, fn func() (T, error)) (T, error) {
	result, err := retry.DoWithData(
		fn,
		retry.Context(ctx),
		retry.Attempts(c.opts.RetryAttempts),
		retry.Delay(c.opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("Retrying %s (attempt %d): %v", method, n+1, err)
		}),
	)
	if err != nil {
		return result, NewRPCError(method, err)
	}
	return result, nil
}

// isTransient reports whether a failed call is worth retrying: JSON-RPC errors returned by the node and context
// errors are final.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr rpc.Error
	return !errors.As(err, &rpcErr)
}

func addressFromKey(tx TransferTx) common.Address {
	return crypto.PubkeyToAddress(tx.PrivateKey.PublicKey)
}
