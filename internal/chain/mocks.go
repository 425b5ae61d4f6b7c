package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ChainID() *big.Int {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*big.Int)
}

func (m *MockClient) TransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockClient) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockClient) TokenBalance(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	args := m.Called(ctx, contract, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockClient) TokenDecimals(ctx context.Context, contract common.Address) (uint8, error) {
	args := m.Called(ctx, contract)
	return args.Get(0).(uint8), args.Error(1)
}

func (m *MockClient) TokenSymbol(ctx context.Context, contract common.Address) (string, error) {
	args := m.Called(ctx, contract)
	return args.String(0), args.Error(1)
}

func (m *MockClient) CodeAt(ctx context.Context, contract common.Address) ([]byte, error) {
	args := m.Called(ctx, contract)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockClient) SendTransfer(ctx context.Context, tx TransferTx) (common.Hash, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockClient) WaitForConfirmation(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockClient) Close() {
	m.Called()
}

var _ Client = (*MockClient)(nil)
