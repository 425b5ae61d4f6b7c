package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/recipients"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
)

// ErrAborted is returned when the user declines the confirmation prompt.
var ErrAborted = errors.New("transfer run aborted by the user")

var recipientSourceLabels = map[string]recipients.Source{
	"Enter addresses manually":  recipients.ManualSource,
	"Load addresses from a CSV": recipients.FileSource,
	"Generate random addresses": recipients.GeneratedSource,
}

var recipientSourceItems = []string{"Enter addresses manually", "Load addresses from a CSV", "Generate random addresses"}

// Input holds the values given on the command line. Missing values are prompted for when the collector is
// interactive.
type Input struct {
	Senders             []transfer.SenderAccount
	Kind                transfer.AssetKind
	NativeSymbol        string
	TokenContract       string
	Recipients          recipients.Options
	Amount              string
	PacingDelay         time.Duration
	WaitForConfirmation bool
}

type CollectorOptions struct {
	Interactive bool
	// AssumeYes skips the confirmation prompt.
	AssumeYes bool
	// Out receives the plan summary. Defaults to os.Stdout.
	Out io.Writer
}

// Collector turns the command line input into a validated transfer.Plan, prompting for what is missing.
type Collector struct {
	prompter Prompter
	client   chain.Client
	resolver *transfer.TokenResolver
	opts     CollectorOptions
}

func NewCollector(prompter Prompter, client chain.Client, resolver *transfer.TokenResolver, opts CollectorOptions) (*Collector, error) {
	if prompter == nil {
		return nil, fmt.Errorf("prompter cannot be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("token resolver cannot be nil")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &Collector{prompter: prompter, client: client, resolver: resolver, opts: opts}, nil
}

func (c *Collector) Collect(ctx context.Context, in Input) (transfer.Plan, error) {
	if len(in.Senders) == 0 {
		return transfer.Plan{}, transfer.NewResolutionError("senders", errors.New("no sender accounts were provided"))
	}
	firstSender := in.Senders[0]

	target, err := c.collectTarget(ctx, in, firstSender)
	if err != nil {
		return transfer.Plan{}, err
	}

	addresses, err := c.collectRecipients(ctx, in.Recipients)
	if err != nil {
		return transfer.Plan{}, err
	}

	amount, err := c.collectAmount(ctx, in.Amount, target, firstSender)
	if err != nil {
		return transfer.Plan{}, err
	}

	plan := transfer.Plan{
		Senders:             in.Senders,
		Recipients:          addresses,
		Amount:              amount,
		Target:              target,
		PacingDelay:         in.PacingDelay,
		WaitForConfirmation: in.WaitForConfirmation,
	}
	if _, err = plan.Validate(); err != nil {
		return transfer.Plan{}, err
	}

	c.printSummary(plan)
	if c.opts.AssumeYes || !c.opts.Interactive {
		return plan, nil
	}

	confirmed, err := c.prompter.Confirm(fmt.Sprintf("Send %d transfer(s)", len(plan.Senders)*len(plan.Recipients)))
	if err != nil {
		return transfer.Plan{}, err
	}
	if !confirmed {
		return transfer.Plan{}, ErrAborted
	}

	return plan, nil
}

func (c *Collector) collectTarget(ctx context.Context, in Input, firstSender transfer.SenderAccount) (transfer.Target, error) {
	switch in.Kind {
	case transfer.NativeAsset:
		symbol := strings.TrimSpace(in.NativeSymbol)
		if symbol == "" {
			return transfer.Target{}, transfer.NewResolutionError("asset", errors.New("native symbol cannot be empty"))
		}
		return transfer.NativeTarget(symbol), nil

	case transfer.TokenAsset:
		contract := strings.TrimSpace(in.TokenContract)
		if contract == "" {
			if !c.opts.Interactive {
				return transfer.Target{}, transfer.NewResolutionError("token contract", errors.New("no token contract address was provided"))
			}

			var err error
			contract, err = c.prompter.Input("Token contract address", func(value string) error {
				_, parseErr := chain.ParseAddress(value)
				return parseErr
			})
			if err != nil {
				return transfer.Target{}, err
			}
		}

		target, err := c.resolver.Resolve(ctx, contract, firstSender.Address)
		if err != nil {
			return transfer.Target{}, err
		}
		log.Ctx(ctx).Infof("Token %s resolved with %d decimals", target, target.Decimals)
		return target, nil

	default:
		return transfer.Target{}, transfer.NewResolutionError("asset", fmt.Errorf("unknown asset kind %q", in.Kind))
	}
}

func (c *Collector) collectRecipients(ctx context.Context, opts recipients.Options) ([]common.Address, error) {
	source, err := opts.Source()
	if err != nil {
		return nil, transfer.NewResolutionError("recipients", err)
	}

	if source == "" && c.opts.Interactive {
		if opts, err = c.promptRecipients(); err != nil {
			return nil, err
		}
	}

	return recipients.Load(ctx, opts)
}

func (c *Collector) promptRecipients() (recipients.Options, error) {
	item, err := c.prompter.Select("Where do the recipients come from", recipientSourceItems)
	if err != nil {
		return recipients.Options{}, err
	}

	switch recipientSourceLabels[item] {
	case recipients.ManualSource:
		list, err := c.prompter.Input("Recipient addresses (separated by commas, spaces or new lines)", notEmpty)
		return recipients.Options{List: list}, err

	case recipients.FileSource:
		path, err := c.prompter.Input("Path of the CSV file", func(value string) error {
			if err := notEmpty(value); err != nil {
				return err
			}
			if _, err := os.Stat(strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("cannot read file: %w", err)
			}
			return nil
		})
		return recipients.Options{FilePath: strings.TrimSpace(path)}, err

	case recipients.GeneratedSource:
		value, err := c.prompter.Input("Number of addresses to generate", func(value string) error {
			_, parseErr := parseCount(value)
			return parseErr
		})
		if err != nil {
			return recipients.Options{}, err
		}
		count, _ := parseCount(value)
		return recipients.Options{GenerateCount: count}, nil

	default:
		return recipients.Options{}, fmt.Errorf("unknown recipient source %q", item)
	}
}

func (c *Collector) collectAmount(ctx context.Context, amount string, target transfer.Target, firstSender transfer.SenderAccount) (string, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		if !c.opts.Interactive {
			return "", transfer.NewResolutionError("amount", errors.New("no amount was provided"))
		}

		label := fmt.Sprintf("Amount of %s to send to each recipient", target.Symbol)
		if balance, err := c.balance(ctx, target, firstSender); err != nil {
			log.Ctx(ctx).Warnf("Could not get the balance of sender %s: %v", firstSender, err)
		} else {
			label = fmt.Sprintf("%s (sender %s holds %s %s)", label, firstSender, transfer.FormatAmount(balance, target.Decimals), target.Symbol)
		}

		var err error
		amount, err = c.prompter.Input(label, func(value string) error {
			_, parseErr := transfer.ParseAmount(value, target.Decimals)
			return parseErr
		})
		if err != nil {
			return "", err
		}
		amount = strings.TrimSpace(amount)
	}

	if _, err := transfer.ParseAmount(amount, target.Decimals); err != nil {
		return "", transfer.NewResolutionError("amount", err)
	}
	return amount, nil
}

func (c *Collector) balance(ctx context.Context, target transfer.Target, sender transfer.SenderAccount) (*big.Int, error) {
	if target.IsNative() {
		return c.client.NativeBalance(ctx, sender.Address)
	}
	return c.client.TokenBalance(ctx, target.ContractAddress, sender.Address)
}

func (c *Collector) printSummary(plan transfer.Plan) {
	senders := make([]string, 0, len(plan.Senders))
	for _, sender := range plan.Senders {
		senders = append(senders, sender.String())
	}

	fmt.Fprintln(c.opts.Out, "Transfer plan:")
	fmt.Fprintf(c.opts.Out, "  Chain ID:              %s\n", c.client.ChainID())
	fmt.Fprintf(c.opts.Out, "  Asset:                 %s\n", plan.Target)
	fmt.Fprintf(c.opts.Out, "  Amount per transfer:   %s %s\n", plan.Amount, plan.Target.Symbol)
	fmt.Fprintf(c.opts.Out, "  Senders (%d):           %s\n", len(plan.Senders), strings.Join(senders, ", "))
	fmt.Fprintf(c.opts.Out, "  Recipients:            %d\n", len(plan.Recipients))
	fmt.Fprintf(c.opts.Out, "  Transfers:             %d\n", len(plan.Senders)*len(plan.Recipients))
	fmt.Fprintf(c.opts.Out, "  Pacing delay:          %s\n", plan.PacingDelay)
	fmt.Fprintf(c.opts.Out, "  Wait for confirmation: %t\n", plan.WaitForConfirmation)
}

func notEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("value cannot be empty")
	}
	return nil
}

func parseCount(value string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if count <= 0 || count > recipients.MaxGeneratedAccounts {
		return 0, fmt.Errorf("the number must be between 1 and %d", recipients.MaxGeneratedAccounts)
	}
	return count, nil
}
