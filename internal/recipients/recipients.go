// Package recipients builds the list of recipient addresses of a run from a manual list, a CSV file or a number of
// freshly generated accounts.
package recipients

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
	"github.com/stellar/evm-batch-transfer/internal/utils"
)

type Source string

const (
	ManualSource    Source = "MANUAL"
	FileSource      Source = "FILE"
	GeneratedSource Source = "GENERATED"
)

func Sources() []Source {
	return []Source{ManualSource, FileSource, GeneratedSource}
}

// Options holds the recipient inputs of a run. At most one of them can be set.
type Options struct {
	List          string
	FilePath      string
	GenerateCount int
}

// Source returns the source selected by the options, or an empty Source when none was set.
func (o Options) Source() (Source, error) {
	var selected []Source
	if strings.TrimSpace(o.List) != "" {
		selected = append(selected, ManualSource)
	}
	if strings.TrimSpace(o.FilePath) != "" {
		selected = append(selected, FileSource)
	}
	if o.GenerateCount != 0 {
		selected = append(selected, GeneratedSource)
	}

	switch len(selected) {
	case 0:
		return "", nil
	case 1:
		return selected[0], nil
	default:
		return "", fmt.Errorf("only one recipient source can be used, got %v", selected)
	}
}

// Load reads the recipients from the source selected by the options. Invalid entries are logged and dropped, but an
// empty final list is an error.
func Load(ctx context.Context, opts Options) ([]common.Address, error) {
	source, err := opts.Source()
	if err != nil {
		return nil, transfer.NewResolutionError("recipients", err)
	}

	var addresses []common.Address
	switch source {
	case ManualSource:
		addresses, err = ParseList(opts.List)
	case FileSource:
		addresses, err = ReadCSVFile(opts.FilePath)
	case GeneratedSource:
		addresses, err = GenerateAddresses(ctx, opts.GenerateCount)
	default:
		return nil, transfer.NewResolutionError("recipients", errors.New("no recipient source was provided"))
	}

	var validationErrs transfer.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, validationErr := range validationErrs {
			log.Ctx(ctx).Warnf("Skipping recipient: %v", validationErr)
		}
	} else if err != nil {
		return nil, transfer.NewResolutionError("recipients", err)
	}

	if len(addresses) == 0 {
		return nil, transfer.NewResolutionError("recipients", errors.New("no valid recipients were provided"))
	}

	log.Ctx(ctx).Infof("Loaded %d recipient(s) from the %s source", len(addresses), strings.ToLower(string(source)))
	return addresses, nil
}

// ParseList parses addresses separated by commas, spaces or new lines. The valid addresses are returned together with
// a ValidationErrors error listing the invalid entries.
func ParseList(input string) ([]common.Address, error) {
	entries := utils.SplitAndTrim(input, ',', ' ', '\t', '\n', '\r')

	addresses := make([]common.Address, 0, len(entries))
	var validationErrs transfer.ValidationErrors
	for _, entry := range entries {
		if !chain.IsValidAddress(entry) {
			validationErrs = append(validationErrs, transfer.NewValidationError(entry, "not a valid address"))
			continue
		}
		addresses = append(addresses, common.HexToAddress(entry))
	}

	if len(validationErrs) > 0 {
		return addresses, validationErrs
	}
	return addresses, nil
}

func ReadCSVFile(path string) ([]common.Address, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recipients file: %w", err)
	}
	defer file.Close()

	return ParseCSV(file)
}
