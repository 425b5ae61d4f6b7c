package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEthBackend struct {
	mock.Mock
}

func (m *mockEthBackend) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockEthBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockEthBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockEthBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockEthBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockEthBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, account, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockEthBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockEthBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *mockEthBackend) Close() {
	m.Called()
}

var _ ethBackend = (*mockEthBackend)(nil)

// jsonRPCError mimics an error answered by the node.
type jsonRPCError struct {
	code    int
	message string
}

func (e jsonRPCError) Error() string  { return e.message }
func (e jsonRPCError) ErrorCode() int { return e.code }

var testChainID = big.NewInt(1337)

func testOptions() EthClientOptions {
	return EthClientOptions{
		RPCURL:                   "http://localhost:8545",
		ConfirmationTimeout:      100 * time.Millisecond,
		ConfirmationPollInterval: time.Millisecond,
		RetryAttempts:            3,
		RetryDelay:               time.Millisecond,
	}
}

func newTestEthClient(t *testing.T) (*EthClient, *mockEthBackend) {
	t.Helper()

	backend := &mockEthBackend{}
	backend.On("ChainID", mock.Anything).Return(testChainID, nil).Once()

	client, err := newEthClient(context.Background(), backend, testOptions())
	require.NoError(t, err)

	return client, backend
}

func Test_EthClientOptions_Validate(t *testing.T) {
	testCases := []struct {
		name            string
		opts            EthClientOptions
		wantErrContains string
	}{
		{
			name:            "empty rpc url",
			opts:            EthClientOptions{},
			wantErrContains: "rpc url cannot be empty",
		},
		{
			name:            "unsupported scheme",
			opts:            EthClientOptions{RPCURL: "ftp://example.com"},
			wantErrContains: "invalid rpc url scheme",
		},
		{
			name:            "negative timeout",
			opts:            EthClientOptions{RPCURL: "https://example.com", ConfirmationTimeout: -time.Second},
			wantErrContains: "cannot be negative",
		},
		{
			name: "valid",
			opts: EthClientOptions{RPCURL: "https://tea-sepolia.g.alchemy.com/public"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErrContains != "" {
				assert.ErrorContains(t, err, tc.wantErrContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_EthClientOptions_withDefaults(t *testing.T) {
	opts := EthClientOptions{RPCURL: "https://example.com"}.withDefaults()

	assert.Equal(t, DefaultHTTPTimeout, opts.HTTPTimeout)
	assert.Equal(t, DefaultConfirmationTimeout, opts.ConfirmationTimeout)
	assert.Equal(t, DefaultConfirmationPollInterval, opts.ConfirmationPollInterval)
	assert.Equal(t, uint(DefaultRetryAttempts), opts.RetryAttempts)
	assert.Equal(t, DefaultRetryDelay, opts.RetryDelay)

	opts = EthClientOptions{RPCURL: "https://example.com", RetryAttempts: 7}.withDefaults()
	assert.Equal(t, uint(7), opts.RetryAttempts)
}

func Test_newEthClient(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the chain id", func(t *testing.T) {
		client, backend := newTestEthClient(t)

		assert.Equal(t, testChainID, client.ChainID())
		client.ChainID().SetInt64(1)
		assert.Equal(t, testChainID, client.ChainID(), "ChainID must return a copy")

		backend.AssertExpectations(t)
	})

	t.Run("closes the backend when the chain id cannot be read", func(t *testing.T) {
		backend := &mockEthBackend{}
		backend.
			On("ChainID", mock.Anything).Return(nil, jsonRPCError{code: -32601, message: "method not found"}).Once().
			On("Close").Return().Once()

		client, err := newEthClient(ctx, backend, testOptions())
		assert.Nil(t, client)
		assert.EqualError(t, err, "getting chain id: rpc eth_chainId: method not found")

		backend.AssertExpectations(t)
	})
}

func Test_EthClient_TransactionCount(t *testing.T) {
	ctx := context.Background()
	address := common.HexToAddress(testAddressHex)

	t.Run("retries transient errors", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("PendingNonceAt", ctx, address).Return(uint64(0), errors.New("connection reset by peer")).Once().
			On("PendingNonceAt", ctx, address).Return(uint64(7), nil).Once()

		nonce, err := client.TransactionCount(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), nonce)

		backend.AssertExpectations(t)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("PendingNonceAt", ctx, address).Return(uint64(0), errors.New("connection reset by peer")).Times(3)

		_, err := client.TransactionCount(ctx, address)
		assert.EqualError(t, err, "rpc eth_getTransactionCount: connection reset by peer")

		backend.AssertExpectations(t)
	})

	t.Run("does not retry node errors", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("PendingNonceAt", ctx, address).Return(uint64(0), jsonRPCError{code: -32000, message: "header not found"}).Once()

		_, err := client.TransactionCount(ctx, address)
		assert.EqualError(t, err, "rpc eth_getTransactionCount: header not found")

		backend.AssertExpectations(t)
	})
}

func Test_EthClient_SuggestGasPrice(t *testing.T) {
	ctx := context.Background()
	client, backend := newTestEthClient(t)
	backend.On("SuggestGasPrice", ctx).Return(big.NewInt(2_000_000_000), nil).Once()

	gasPrice, err := client.SuggestGasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_000_000_000), gasPrice)

	backend.AssertExpectations(t)
}

func Test_EthClient_NativeBalance(t *testing.T) {
	ctx := context.Background()
	address := common.HexToAddress(testAddressHex)
	client, backend := newTestEthClient(t)
	backend.On("BalanceAt", ctx, address, (*big.Int)(nil)).Return(big.NewInt(10), nil).Once()

	balance, err := client.NativeBalance(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), balance)

	backend.AssertExpectations(t)
}

func Test_EthClient_TokenCalls(t *testing.T) {
	ctx := context.Background()
	contract := common.HexToAddress("0x1111111111111111111111111111111111111111")
	owner := common.HexToAddress(testAddressHex)

	callTo := func(selector string) interface{} {
		return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
			return msg.To != nil && *msg.To == contract && len(msg.Data) >= 4 && hexutil.Encode(msg.Data[:4]) == selector
		})
	}

	t.Run("TokenBalance", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		output, err := erc20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(500))
		require.NoError(t, err)
		backend.On("CallContract", ctx, callTo("0x70a08231"), (*big.Int)(nil)).Return(output, nil).Once()

		balance, err := client.TokenBalance(ctx, contract, owner)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(500), balance)

		backend.AssertExpectations(t)
	})

	t.Run("TokenDecimals", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		output, err := erc20ABI.Methods["decimals"].Outputs.Pack(uint8(18))
		require.NoError(t, err)
		backend.On("CallContract", ctx, callTo("0x313ce567"), (*big.Int)(nil)).Return(output, nil).Once()

		decimals, err := client.TokenDecimals(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, uint8(18), decimals)

		backend.AssertExpectations(t)
	})

	t.Run("TokenSymbol", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		output, err := erc20ABI.Methods["symbol"].Outputs.Pack("TKN")
		require.NoError(t, err)
		backend.On("CallContract", ctx, callTo("0x95d89b41"), (*big.Int)(nil)).Return(output, nil).Once()

		symbol, err := client.TokenSymbol(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, "TKN", symbol)

		backend.AssertExpectations(t)
	})

	t.Run("TokenSymbol on a contract that reverts", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("CallContract", ctx, callTo("0x95d89b41"), (*big.Int)(nil)).
			Return(nil, jsonRPCError{code: 3, message: "execution reverted"}).Once()

		_, err := client.TokenSymbol(ctx, contract)
		assert.EqualError(t, err, "calling symbol: rpc eth_call: execution reverted")

		backend.AssertExpectations(t)
	})

	t.Run("CodeAt", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.On("CodeAt", ctx, contract, (*big.Int)(nil)).Return([]byte{0x60, 0x80}, nil).Once()

		code, err := client.CodeAt(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x80}, code)

		backend.AssertExpectations(t)
	})
}

func Test_EthClient_SendTransfer(t *testing.T) {
	ctx := context.Background()
	account, err := ParsePrivateKey(testPrivateKeyHex)
	require.NoError(t, err)
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	nonce := uint64(3)
	signer := types.LatestSignerForChainID(testChainID)

	t.Run("invalid transfer", func(t *testing.T) {
		client, backend := newTestEthClient(t)

		_, err := client.SendTransfer(ctx, TransferTx{PrivateKey: account.PrivateKey, To: recipient})
		assert.EqualError(t, err, "validating transfer: amount must be greater than zero")

		backend.AssertExpectations(t)
	})

	t.Run("native transfer with explicit nonce and gas price", func(t *testing.T) {
		client, backend := newTestEthClient(t)

		var sentTx *types.Transaction
		backend.
			On("SendTransaction", ctx, mock.AnythingOfType("*types.Transaction")).
			Run(func(args mock.Arguments) {
				sentTx = args.Get(1).(*types.Transaction)
			}).
			Return(nil).Once()

		hash, err := client.SendTransfer(ctx, TransferTx{
			PrivateKey: account.PrivateKey,
			To:         recipient,
			Amount:     big.NewInt(5_000_000_000_000_000),
			Nonce:      &nonce,
			GasPrice:   big.NewInt(1_000_000_000),
		})
		require.NoError(t, err)
		require.NotNil(t, sentTx)

		assert.Equal(t, sentTx.Hash(), hash)
		assert.Equal(t, uint8(types.LegacyTxType), sentTx.Type())
		assert.Equal(t, nonce, sentTx.Nonce())
		assert.Equal(t, recipient, *sentTx.To())
		assert.Equal(t, big.NewInt(5_000_000_000_000_000), sentTx.Value())
		assert.Equal(t, DefaultNativeGasLimit, sentTx.Gas())
		assert.Equal(t, big.NewInt(1_000_000_000), sentTx.GasPrice())
		assert.Empty(t, sentTx.Data())
		assert.Equal(t, testChainID, sentTx.ChainId())

		sender, err := types.Sender(signer, sentTx)
		require.NoError(t, err)
		assert.Equal(t, account.Address, sender)

		backend.AssertExpectations(t)
	})

	t.Run("token transfer fetches nonce and gas price", func(t *testing.T) {
		client, backend := newTestEthClient(t)

		var sentTx *types.Transaction
		backend.
			On("PendingNonceAt", ctx, account.Address).Return(uint64(9), nil).Once().
			On("SuggestGasPrice", ctx).Return(big.NewInt(3_000_000_000), nil).Once().
			On("SendTransaction", ctx, mock.AnythingOfType("*types.Transaction")).
			Run(func(args mock.Arguments) {
				sentTx = args.Get(1).(*types.Transaction)
			}).
			Return(nil).Once()

		_, err := client.SendTransfer(ctx, TransferTx{
			PrivateKey: account.PrivateKey,
			To:         recipient,
			Amount:     big.NewInt(1_000_000),
			Token:      &token,
		})
		require.NoError(t, err)
		require.NotNil(t, sentTx)

		assert.Equal(t, uint64(9), sentTx.Nonce())
		assert.Equal(t, token, *sentTx.To())
		assert.Equal(t, 0, sentTx.Value().Sign())
		assert.Equal(t, DefaultTokenGasLimit, sentTx.Gas())
		assert.Equal(t, big.NewInt(3_000_000_000), sentTx.GasPrice())

		wantData, err := packTransfer(recipient, big.NewInt(1_000_000))
		require.NoError(t, err)
		assert.Equal(t, wantData, sentTx.Data())

		backend.AssertExpectations(t)
	})

	t.Run("custom gas limit", func(t *testing.T) {
		client, backend := newTestEthClient(t)

		var sentTx *types.Transaction
		backend.
			On("SendTransaction", ctx, mock.AnythingOfType("*types.Transaction")).
			Run(func(args mock.Arguments) {
				sentTx = args.Get(1).(*types.Transaction)
			}).
			Return(nil).Once()

		_, err := client.SendTransfer(ctx, TransferTx{
			PrivateKey: account.PrivateKey,
			To:         recipient,
			Amount:     big.NewInt(1),
			Token:      &token,
			Nonce:      &nonce,
			GasLimit:   80_000,
			GasPrice:   big.NewInt(1),
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(80_000), sentTx.Gas())

		backend.AssertExpectations(t)
	})

	t.Run("rejected submission is not retried", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("SendTransaction", ctx, mock.AnythingOfType("*types.Transaction")).
			Return(jsonRPCError{code: -32000, message: "nonce too low"}).Once()

		_, err := client.SendTransfer(ctx, TransferTx{
			PrivateKey: account.PrivateKey,
			To:         recipient,
			Amount:     big.NewInt(1),
			Nonce:      &nonce,
			GasPrice:   big.NewInt(1),
		})
		assert.EqualError(t, err, "rpc eth_sendRawTransaction: nonce too low")
		assert.True(t, IsNonceConflict(err))

		backend.AssertExpectations(t)
	})

	t.Run("gas price error", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.On("SuggestGasPrice", ctx).Return(nil, jsonRPCError{code: -32601, message: "method not found"}).Once()

		_, err := client.SendTransfer(ctx, TransferTx{
			PrivateKey: account.PrivateKey,
			To:         recipient,
			Amount:     big.NewInt(1),
			Nonce:      &nonce,
		})
		assert.EqualError(t, err, "getting gas price: rpc eth_gasPrice: method not found")

		backend.AssertExpectations(t)
	})
}

func Test_EthClient_WaitForConfirmation(t *testing.T) {
	ctx := context.Background()
	txHash := common.HexToHash("0xabc")

	t.Run("polls until the receipt is available", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash, BlockNumber: big.NewInt(100)}
		backend.
			On("TransactionReceipt", mock.Anything, txHash).Return(nil, ethereum.NotFound).Twice().
			On("TransactionReceipt", mock.Anything, txHash).Return(receipt, nil).Once()

		gotReceipt, err := client.WaitForConfirmation(ctx, txHash)
		require.NoError(t, err)
		assert.Equal(t, receipt, gotReceipt)

		backend.AssertExpectations(t)
	})

	t.Run("reverted transaction", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		receipt := &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: txHash, BlockNumber: big.NewInt(100)}
		backend.On("TransactionReceipt", mock.Anything, txHash).Return(receipt, nil).Once()

		gotReceipt, err := client.WaitForConfirmation(ctx, txHash)
		assert.ErrorIs(t, err, ErrTransactionReverted)
		assert.Equal(t, receipt, gotReceipt)

		backend.AssertExpectations(t)
	})

	t.Run("times out", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.On("TransactionReceipt", mock.Anything, txHash).Return(nil, ethereum.NotFound)

		_, err := client.WaitForConfirmation(ctx, txHash)
		assert.ErrorIs(t, err, ErrConfirmationTimeout)
	})

	t.Run("parent context canceled", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		backend.On("TransactionReceipt", mock.Anything, txHash).Return(nil, ethereum.NotFound).Maybe()

		_, err := client.WaitForConfirmation(cancelCtx, txHash)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrConfirmationTimeout)
	})

	t.Run("node error", func(t *testing.T) {
		client, backend := newTestEthClient(t)
		backend.
			On("TransactionReceipt", mock.Anything, txHash).
			Return(nil, jsonRPCError{code: -32000, message: "internal error"}).Once()

		_, err := client.WaitForConfirmation(ctx, txHash)
		assert.EqualError(t, err, "rpc eth_getTransactionReceipt: internal error")

		backend.AssertExpectations(t)
	})
}

func Test_EthClient_Close(t *testing.T) {
	client, backend := newTestEthClient(t)
	backend.On("Close").Return().Once()

	client.Close()

	backend.AssertExpectations(t)
}
