package recipients

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/chain"
)

const MaxGeneratedAccounts = 10_000

// GenerateAccounts creates count random accounts.
func GenerateAccounts(count int) ([]chain.Account, error) {
	if count <= 0 || count > MaxGeneratedAccounts {
		return nil, fmt.Errorf("the number of accounts must be between 1 and %d, got %d", MaxGeneratedAccounts, count)
	}

	accounts := make([]chain.Account, 0, count)
	for range count {
		account, err := chain.NewRandomAccount()
		if err != nil {
			return nil, fmt.Errorf("generating account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GenerateAddresses creates count random recipient addresses and logs them with their index. The private keys are
// discarded.
func GenerateAddresses(ctx context.Context, count int) ([]common.Address, error) {
	accounts, err := GenerateAccounts(count)
	if err != nil {
		return nil, err
	}

	addresses := make([]common.Address, 0, len(accounts))
	for i, account := range accounts {
		log.Ctx(ctx).Infof("Generated recipient #%d: %s", i+1, account.Address.Hex())
		addresses = append(addresses, account.Address)
	}
	return addresses, nil
}
