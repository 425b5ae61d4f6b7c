package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/stellar/evm-batch-transfer/internal/utils"
)

// Account is a secp256k1 key pair and the address derived from it.
type Account struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

func (a Account) String() string {
	return fmt.Sprintf("Account{Address: %s}", utils.MaskAddress(a.Address.Hex()))
}

// PrivateKeyHex returns the 0x-prefixed hex encoding of the private key.
func (a Account) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(a.PrivateKey))
}

// ParsePrivateKey parses a hex encoded private key, with or without the 0x prefix.
func ParsePrivateKey(hexKey string) (Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return Account{}, fmt.Errorf("private key cannot be empty")
	}

	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return Account{}, fmt.Errorf("parsing private key %q: %w", utils.TruncateString(hexKey, 2), err)
	}

	return Account{
		PrivateKey: privateKey,
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// NewRandomAccount generates a new random key pair. It is used to produce synthetic recipients.
func NewRandomAccount() (Account, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Account{}, fmt.Errorf("generating private key: %w", err)
	}

	return Account{
		PrivateKey: privateKey,
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// IsValidAddress reports whether the string is a 0x-prefixed, 20-byte hex address. Mixed-case addresses must carry a
// valid EIP-55 checksum.
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return false
	}

	hexPart := address[2:]
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return true
	}

	return common.HexToAddress(address).Hex() == address
}

// ParseAddress validates and parses the address.
func ParseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !IsValidAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address %q", address)
	}
	return common.HexToAddress(address), nil
}
