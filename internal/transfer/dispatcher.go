package transfer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stellar/go-stellar-sdk/support/log"
	"golang.org/x/sync/errgroup"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
)

// Options tunes a Dispatcher. The zero value is usable.
type Options struct {
	// GasLimit overrides the default gas limit of the transfer kind when greater than zero.
	GasLimit uint64
	// FallbackGasPrice is used when the node cannot provide a gas price quote. Defaults to
	// chain.DefaultFallbackGasPrice.
	FallbackGasPrice *big.Int
	// ParallelSenders processes distinct senders concurrently. The transfers of one sender are always sequential.
	ParallelSenders bool
	// OnResult is called once per result, as soon as the result is known. Calls are serialized.
	OnResult func(Result)
}

// Dispatcher drives the requests of a Plan through balance check, submission and confirmation, one transfer at a
// time per sender.
type Dispatcher struct {
	client         chain.Client
	monitorService monitor.MonitorServiceInterface
	opts           Options
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a Dispatcher. monitorService may be nil to disable metrics.
func NewDispatcher(client chain.Client, monitorService monitor.MonitorServiceInterface, opts Options) (*Dispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}

	if opts.FallbackGasPrice == nil {
		opts.FallbackGasPrice = chain.DefaultFallbackGasPrice
	} else if opts.FallbackGasPrice.Sign() <= 0 {
		return nil, fmt.Errorf("fallback gas price must be greater than zero")
	}

	return &Dispatcher{
		client:         client,
		monitorService: monitorService,
		opts:           opts,
		sleep:          sleepContext,
	}, nil
}

// Dispatch runs every request of the plan and returns exactly one result per request, sender-major. Per-transfer
// failures are recorded in the results. The returned error is a ResolutionError when the plan is invalid, in which
// case nothing is submitted, or the context error when the run was interrupted.
func (d *Dispatcher) Dispatch(ctx context.Context, plan Plan) ([]Result, error) {
	amount, err := plan.Validate()
	if err != nil {
		return nil, err
	}

	ctx = log.Set(ctx, log.Ctx(ctx).WithFields(log.F{
		"run_id": uuid.NewString(),
		"asset":  plan.Target.Symbol,
	}))
	log.Ctx(ctx).Infof("Dispatching %s %s from %d sender(s) to %d recipient(s), %d transfer(s) in total",
		plan.Amount, plan.Target, len(plan.Senders), len(plan.Recipients), len(plan.Senders)*len(plan.Recipients))
	d.monitorCounter(ctx, monitor.DispatchRunsCounterTag, monitor.DispatchRunLabels{Asset: plan.Target.Symbol}.ToMap())

	var mu sync.Mutex
	handle := func(result Result) {
		mu.Lock()
		defer mu.Unlock()
		d.report(ctx, result)
	}

	resultsBySender := make([][]Result, len(plan.Senders))
	if d.opts.ParallelSenders && len(plan.Senders) > 1 {
		var g errgroup.Group
		for i := range plan.Senders {
			g.Go(func() error {
				resultsBySender[i] = d.dispatchSender(ctx, plan, i, amount, &pacer{delay: plan.PacingDelay, sleep: d.sleep}, handle)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		p := &pacer{delay: plan.PacingDelay, sleep: d.sleep}
		for i := range plan.Senders {
			resultsBySender[i] = d.dispatchSender(ctx, plan, i, amount, p, handle)
		}
	}

	results := make([]Result, 0, len(plan.Senders)*len(plan.Recipients))
	for _, senderResults := range resultsBySender {
		results = append(results, senderResults...)
	}

	summary := Summarize(results)
	log.Ctx(ctx).Infof("🏁 Dispatch completed: %d transfer(s), %d succeeded, %d failed", summary.Total, summary.Succeeded, summary.Failed)

	if err = ctx.Err(); err != nil {
		return results, fmt.Errorf("dispatch interrupted: %w", err)
	}
	return results, nil
}

// dispatchSender processes all the requests of one sender, in recipient order, with a nonce counter seeded from the
// chain.
func (d *Dispatcher) dispatchSender(ctx context.Context, plan Plan, senderIndex int, amount *big.Int, p *pacer, handle func(Result)) []Result {
	sender := plan.Senders[senderIndex]
	ctx = log.Set(ctx, log.Ctx(ctx).WithField("sender", sender.Address.Hex()))

	requests := plan.RequestsFor(senderIndex)
	results := make([]Result, 0, len(requests))
	emit := func(result Result) {
		results = append(results, result)
		handle(result)
	}

	nonce, err := d.client.TransactionCount(ctx, sender.Address)
	if err != nil {
		log.Ctx(ctx).Errorf("🔴 Could not get the transaction count of sender %s, skipping its %d transfer(s): %v", sender, len(requests), err)
		for _, request := range requests {
			emit(failedResult(request, NewTransferError(StageNonce, fmt.Errorf("getting transaction count: %w", err))))
		}
		return results
	}
	log.Ctx(ctx).Debugf("Sender %s starts at nonce %d", sender, nonce)

	for _, request := range requests {
		if ctxErr := ctx.Err(); ctxErr != nil {
			emit(failedResult(request, NewTransferError(StageInterrupted, ctxErr)))
			continue
		}

		if waitErr := p.wait(ctx); waitErr != nil {
			emit(failedResult(request, NewTransferError(StageInterrupted, waitErr)))
			continue
		}

		emit(d.transfer(ctx, request, amount, plan.WaitForConfirmation, &nonce))
	}

	return results
}

func (d *Dispatcher) transfer(ctx context.Context, request Request, amount *big.Int, waitForConfirmation bool, nonce *uint64) Result {
	startTime := time.Now()
	ctx = log.Set(ctx, log.Ctx(ctx).WithFields(log.F{
		"recipient": request.Recipient.Hex(),
		"nonce":     *nonce,
	}))

	result := d.runTransfer(ctx, newResultTracker(request), amount, waitForConfirmation, nonce)
	result.Duration = time.Since(startTime)
	return result
}

// runTransfer moves a single request through the balance check, the submission and the confirmation. The nonce is
// incremented only when the node accepted the transaction.
func (d *Dispatcher) runTransfer(ctx context.Context, tracker *resultTracker, amount *big.Int, waitForConfirmation bool, nonce *uint64) Result {
	request := tracker.result.Request
	target := request.Target
	if !target.IsNative() {
		balance, err := d.client.TokenBalance(ctx, target.ContractAddress, request.Sender.Address)
		if err != nil {
			return tracker.fail(NewTransferError(StageBalanceCheck, fmt.Errorf("getting token balance: %w", err)))
		}
		if balance.Cmp(amount) < 0 {
			return tracker.fail(NewTransferError(StageBalanceCheck, fmt.Errorf("%w: sender holds %s %s, transfer requires %s %s",
				ErrInsufficientBalance, FormatAmount(balance, target.Decimals), target.Symbol, request.Amount, target.Symbol)))
		}
	}

	gasPrice := d.gasPrice(ctx)
	txNonce := *nonce
	transferTx := chain.TransferTx{
		PrivateKey: request.Sender.PrivateKey,
		To:         request.Recipient,
		Amount:     amount,
		Nonce:      &txNonce,
		GasLimit:   d.opts.GasLimit,
		GasPrice:   gasPrice,
	}
	if !target.IsNative() {
		contract := target.ContractAddress
		transferTx.Token = &contract
	}

	txHash, err := d.client.SendTransfer(ctx, transferTx)
	if err != nil {
		if chain.IsNonceConflict(err) {
			d.reseedNonce(ctx, request.Sender, nonce)
		}
		return tracker.fail(NewTransferError(StageSubmission, err))
	}
	*nonce++

	tracker.result.Nonce = &txNonce
	tracker.result.TxHash = txHash
	tracker.result.GasPrice = gasPrice
	if err = tracker.transitionTo(SubmittedStatus); err != nil {
		return tracker.fail(err)
	}

	ctx = log.Set(ctx, log.Ctx(ctx).WithField("tx_hash", txHash.Hex()))
	if !waitForConfirmation {
		return tracker.result
	}

	log.Ctx(ctx).Debugf("Waiting for the confirmation of transaction %s", txHash.Hex())
	receipt, err := d.client.WaitForConfirmation(ctx, txHash)
	if receipt != nil {
		tracker.result.BlockNumber = receipt.BlockNumber
	}
	if err != nil {
		return tracker.fail(NewTransferError(StageConfirmation, err))
	}

	if err = tracker.transitionTo(ConfirmedStatus); err != nil {
		return tracker.fail(err)
	}
	return tracker.result
}

// gasPrice returns the node's gas price quote, or the fallback gas price when the quote cannot be obtained.
func (d *Dispatcher) gasPrice(ctx context.Context) *big.Int {
	gasPrice, err := d.client.SuggestGasPrice(ctx)
	if err != nil || gasPrice == nil || gasPrice.Sign() <= 0 {
		log.Ctx(ctx).Warnf("Using fallback gas price %s wei, the gas price quote failed: %v", d.opts.FallbackGasPrice, err)
		return new(big.Int).Set(d.opts.FallbackGasPrice)
	}
	return gasPrice
}

// reseedNonce reads the nonce again after the node refused a transaction because of its nonce. If the query fails the
// local counter is left untouched.
func (d *Dispatcher) reseedNonce(ctx context.Context, sender SenderAccount, nonce *uint64) {
	reseeded, err := d.client.TransactionCount(ctx, sender.Address)
	if err != nil {
		log.Ctx(ctx).Warnf("Could not re-read the transaction count of sender %s after a nonce conflict: %v", sender, err)
		return
	}
	log.Ctx(ctx).Warnf("Nonce conflict for sender %s, nonce re-seeded from %d to %d", sender, *nonce, reseeded)
	*nonce = reseeded
}

// report logs the result, records it in the metrics and hands it to the result callback.
func (d *Dispatcher) report(ctx context.Context, result Result) {
	request := result.Request
	ctx = log.Set(ctx, log.Ctx(ctx).WithFields(log.F{
		"sender":    request.Sender.Address.Hex(),
		"recipient": request.Recipient.Hex(),
	}))
	if result.Nonce != nil {
		ctx = log.Set(ctx, log.Ctx(ctx).WithFields(log.F{"nonce": *result.Nonce, "tx_hash": result.TxHash.Hex()}))
	}

	if result.Succeeded() {
		log.Ctx(ctx).Infof("🟢 Sent %s %s from %s to %s, tx %s (%s)",
			request.Amount, request.Target.Symbol, request.Sender, request.Recipient.Hex(), result.TxHash.Hex(), result.Status)
	} else {
		log.Ctx(ctx).Errorf("🔴 Transfer of %s %s from %s to %s failed: %s",
			request.Amount, request.Target.Symbol, request.Sender, request.Recipient.Hex(), result.Reason())
	}

	labels := monitor.TransferLabels{Asset: request.Target.Symbol, Status: string(result.Status)}.ToMap()
	d.monitorCounter(ctx, monitor.TransfersCounterTag, labels)
	if d.monitorService != nil {
		if err := d.monitorService.MonitorDuration(result.Duration, monitor.TransferDurationTag, labels); err != nil {
			log.Ctx(ctx).Errorf("monitoring transfer duration: %v", err)
		}
	}

	if d.opts.OnResult != nil {
		d.opts.OnResult(result)
	}
}

func (d *Dispatcher) monitorCounter(ctx context.Context, tag monitor.MetricTag, labels map[string]string) {
	if d.monitorService == nil {
		return
	}
	if err := d.monitorService.MonitorCounters(tag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring counter %s: %v", tag, err)
	}
}

// resultTracker builds the Result of a request, moving it through the transfer state machine.
type resultTracker struct {
	result       Result
	stateMachine *StateMachine[Status]
}

func newResultTracker(request Request) *resultTracker {
	return &resultTracker{
		result:       Result{Request: request, Status: PendingStatus},
		stateMachine: StatusStateMachineWithInitialState(PendingStatus),
	}
}

func (rt *resultTracker) transitionTo(status Status) error {
	if err := rt.stateMachine.TransitionTo(status); err != nil {
		return fmt.Errorf("updating transfer status: %w", err)
	}
	rt.result.Status = status
	return nil
}

func (rt *resultTracker) fail(err error) Result {
	if transitionErr := rt.transitionTo(FailedStatus); transitionErr != nil {
		err = fmt.Errorf("%w (%v)", err, transitionErr)
		rt.result.Status = FailedStatus
	}
	rt.result.Err = err
	return rt.result
}

func failedResult(request Request, err error) Result {
	return newResultTracker(request).fail(err)
}

// pacer spaces transfers by a fixed delay. The first call to wait returns immediately, so no delay follows the last
// transfer.
type pacer struct {
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	started bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return nil
	}
	if p.delay <= 0 {
		return nil
	}
	return p.sleep(ctx, p.delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
