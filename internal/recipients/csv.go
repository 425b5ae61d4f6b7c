package recipients

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gocarina/gocsv"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
)

const AddressColumn = "address"

type csvRecipient struct {
	Address string `csv:"address"`
}

// ParseCSV reads a CSV document with an address column. A leading byte order mark is ignored. Like ParseList, the
// valid addresses are returned together with a ValidationErrors error listing the invalid rows.
func ParseCSV(reader io.Reader) ([]common.Address, error) {
	content, err := io.ReadAll(utfbom.SkipOnly(reader))
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	header, err := csv.NewReader(bytes.NewReader(content)).Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("the csv file is empty")
	} else if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	if !slices.Contains(header, AddressColumn) {
		return nil, fmt.Errorf("the csv file has no %q column", AddressColumn)
	}

	rows := []*csvRecipient{}
	if err = gocsv.UnmarshalBytes(content, &rows); err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	addresses := make([]common.Address, 0, len(rows))
	var validationErrs transfer.ValidationErrors
	for i, row := range rows {
		lineNumber := i + 2 // +1 for header row, +1 for 0-index
		address := strings.TrimSpace(row.Address)
		if !chain.IsValidAddress(address) {
			validationErrs = append(validationErrs, transfer.NewValidationError(address, fmt.Sprintf("line %d: not a valid address", lineNumber)))
			continue
		}
		addresses = append(addresses, common.HexToAddress(address))
	}

	if len(validationErrs) > 0 {
		return addresses, validationErrs
	}
	return addresses, nil
}

type csvAccount struct {
	Address    string `csv:"address"`
	PrivateKey string `csv:"private_key"`
}

// WriteCSV writes the accounts as a CSV document that ParseCSV can read back. The private_key column is only written
// when withPrivateKeys is set.
func WriteCSV(writer io.Writer, accounts []chain.Account, withPrivateKeys bool) error {
	if !withPrivateKeys {
		rows := make([]*csvRecipient, 0, len(accounts))
		for _, account := range accounts {
			rows = append(rows, &csvRecipient{Address: account.Address.Hex()})
		}
		if err := gocsv.Marshal(rows, writer); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		return nil
	}

	rows := make([]*csvAccount, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, &csvAccount{Address: account.Address.Hex(), PrivateKey: account.PrivateKeyHex()})
	}
	if err := gocsv.Marshal(rows, writer); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
