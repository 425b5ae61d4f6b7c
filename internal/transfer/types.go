package transfer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/utils"
)

// SenderAccount is a signing key and the address derived from it. The nonce counter of a sender is held by the
// dispatcher for the duration of one run.
type SenderAccount struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

func NewSenderAccount(account chain.Account) SenderAccount {
	return SenderAccount{PrivateKey: account.PrivateKey, Address: account.Address}
}

// ParseSenderAccounts parses a list of hex encoded private keys. Duplicated keys are an error, since two nonce
// counters for the same address would collide.
func ParseSenderAccounts(hexKeys []string) ([]SenderAccount, error) {
	if len(hexKeys) == 0 {
		return nil, NewConfigurationError("private key", errors.New("no private key was provided"))
	}

	senders := make([]SenderAccount, 0, len(hexKeys))
	seen := make(map[common.Address]int, len(hexKeys))
	for i, hexKey := range hexKeys {
		account, err := chain.ParsePrivateKey(hexKey)
		if err != nil {
			return nil, NewConfigurationError("private key", fmt.Errorf("key #%d: %w", i+1, err))
		}
		if j, ok := seen[account.Address]; ok {
			return nil, NewConfigurationError("private key", fmt.Errorf("key #%d duplicates key #%d", i+1, j+1))
		}
		seen[account.Address] = i
		senders = append(senders, NewSenderAccount(account))
	}

	return senders, nil
}

func (s SenderAccount) String() string {
	return utils.MaskAddress(s.Address.Hex())
}

type AssetKind string

const (
	NativeAsset AssetKind = "native"
	TokenAsset  AssetKind = "token"
)

// Target is the asset being transferred: the native currency of the chain or an ERC-20 token.
type Target struct {
	Kind            AssetKind
	ContractAddress common.Address
	Decimals        int32
	Symbol          string
}

func NativeTarget(symbol string) Target {
	return Target{Kind: NativeAsset, Decimals: NativeDecimals, Symbol: symbol}
}

func TokenTarget(contract common.Address, decimals uint8, symbol string) Target {
	return Target{Kind: TokenAsset, ContractAddress: contract, Decimals: int32(decimals), Symbol: symbol}
}

func (t Target) IsNative() bool {
	return t.Kind == NativeAsset
}

func (t Target) Validate() error {
	switch t.Kind {
	case NativeAsset:
		if t.Decimals != NativeDecimals {
			return fmt.Errorf("native asset must have %d decimals", NativeDecimals)
		}
	case TokenAsset:
		if t.ContractAddress == (common.Address{}) {
			return fmt.Errorf("token contract address cannot be empty")
		}
		if t.Decimals < 0 || t.Decimals > MaxDecimals {
			return fmt.Errorf("invalid token decimals %d", t.Decimals)
		}
	default:
		return fmt.Errorf("unknown asset kind %q", t.Kind)
	}
	return nil
}

func (t Target) String() string {
	if t.IsNative() {
		return t.Symbol
	}
	return fmt.Sprintf("%s (%s)", t.Symbol, t.ContractAddress.Hex())
}

// Request is one transfer of Amount from Sender to Recipient. It is never modified after creation.
type Request struct {
	Sender    SenderAccount
	Recipient common.Address
	Amount    string
	Target    Target
	// SenderIndex and RecipientIndex locate the request in the plan, which makes requests to duplicated recipients
	// distinguishable.
	SenderIndex    int
	RecipientIndex int
}

// Result is the outcome of one Request.
type Result struct {
	Request Request
	Status  Status
	TxHash  common.Hash
	// Nonce is set once the transaction was accepted by the node.
	Nonce       *uint64
	GasPrice    *big.Int
	BlockNumber *big.Int
	Err         error
	Duration    time.Duration
}

// Succeeded reports whether the transfer was confirmed, or submitted when the run does not wait for confirmations.
func (r Result) Succeeded() bool {
	return r.Err == nil && (r.Status == ConfirmedStatus || r.Status == SubmittedStatus)
}

// Reason is the human readable cause of a failure.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Plan is the validated input of one dispatch run.
type Plan struct {
	Senders             []SenderAccount
	Recipients          []common.Address
	Amount              string
	Target              Target
	PacingDelay         time.Duration
	WaitForConfirmation bool
}

// Validate checks the plan and returns the amount in the smallest unit of the target. Errors are ResolutionErrors.
func (p Plan) Validate() (*big.Int, error) {
	if len(p.Senders) == 0 {
		return nil, NewResolutionError("senders", errors.New("no sender accounts were provided"))
	}
	for i, sender := range p.Senders {
		if sender.PrivateKey == nil {
			return nil, NewResolutionError("senders", fmt.Errorf("sender #%d has no signing key", i+1))
		}
	}

	if len(p.Recipients) == 0 {
		return nil, NewResolutionError("recipients", errors.New("no recipients were provided"))
	}

	if err := p.Target.Validate(); err != nil {
		return nil, NewResolutionError("asset", err)
	}

	amount, err := ParseAmount(p.Amount, p.Target.Decimals)
	if err != nil {
		return nil, NewResolutionError("amount", err)
	}

	if p.PacingDelay < 0 {
		return nil, NewResolutionError("pacing delay", fmt.Errorf("pacing delay cannot be negative"))
	}

	return amount, nil
}

// RequestsFor returns the requests of the sender at the given index, in recipient order.
func (p Plan) RequestsFor(senderIndex int) []Request {
	requests := make([]Request, 0, len(p.Recipients))
	for i, recipient := range p.Recipients {
		requests = append(requests, Request{
			Sender:         p.Senders[senderIndex],
			Recipient:      recipient,
			Amount:         p.Amount,
			Target:         p.Target,
			SenderIndex:    senderIndex,
			RecipientIndex: i,
		})
	}
	return requests
}

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

func Summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		if result.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
