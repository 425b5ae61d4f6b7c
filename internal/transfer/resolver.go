package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/chain"
)

const DefaultTokenCacheSize = 64

type tokenMetadata struct {
	Symbol   string
	Decimals uint8
}

// TokenResolver turns a contract address into a token Target after checking that the contract exposes the ERC-20 read
// surface. Metadata is cached per contract.
type TokenResolver struct {
	client chain.Client
	cache  *lru.Cache[common.Address, tokenMetadata]
}

func NewTokenResolver(client chain.Client, cacheSize int) (*TokenResolver, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultTokenCacheSize
	}

	cache, err := lru.New[common.Address, tokenMetadata](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating token metadata cache: %w", err)
	}

	return &TokenResolver{client: client, cache: cache}, nil
}

// Resolve queries symbol(), decimals() and balanceOf(probe) on the contract. Any failure is a ResolutionError.
func (r *TokenResolver) Resolve(ctx context.Context, contractAddress string, probe common.Address) (Target, error) {
	contractAddress = strings.TrimSpace(contractAddress)
	if !chain.IsValidAddress(contractAddress) {
		return Target{}, NewResolutionError("token contract", fmt.Errorf("invalid contract address %q", contractAddress))
	}

	contract := common.HexToAddress(contractAddress)
	if contract == (common.Address{}) {
		return Target{}, NewResolutionError("token contract", errors.New("contract address cannot be the zero address"))
	}

	if metadata, ok := r.cache.Get(contract); ok {
		return TokenTarget(contract, metadata.Decimals, metadata.Symbol), nil
	}

	metadata, err := r.queryMetadata(ctx, contract, probe)
	if err != nil {
		return Target{}, NewResolutionError("token contract", fmt.Errorf("%s: %w", contract.Hex(), err))
	}
	r.cache.Add(contract, metadata)

	log.Ctx(ctx).Debugf("Resolved token %s at %s with %d decimals", metadata.Symbol, contract.Hex(), metadata.Decimals)
	return TokenTarget(contract, metadata.Decimals, metadata.Symbol), nil
}

func (r *TokenResolver) queryMetadata(ctx context.Context, contract, probe common.Address) (tokenMetadata, error) {
	code, err := r.client.CodeAt(ctx, contract)
	if err != nil {
		return tokenMetadata{}, fmt.Errorf("getting contract code: %w", err)
	}
	if len(code) == 0 {
		return tokenMetadata{}, errors.New("no contract deployed at this address")
	}

	symbol, err := r.client.TokenSymbol(ctx, contract)
	if err != nil {
		return tokenMetadata{}, fmt.Errorf("getting token symbol: %w", err)
	}

	decimals, err := r.client.TokenDecimals(ctx, contract)
	if err != nil {
		return tokenMetadata{}, fmt.Errorf("getting token decimals: %w", err)
	}

	if _, err = r.client.TokenBalance(ctx, contract, probe); err != nil {
		return tokenMetadata{}, fmt.Errorf("getting token balance: %w", err)
	}

	return tokenMetadata{Symbol: symbol, Decimals: decimals}, nil
}
