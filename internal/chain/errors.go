package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellar/evm-batch-transfer/internal/utils"
)

var (
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")
)

var (
	nonceConflictMessages     = []string{"nonce too low", "already known", "replacement transaction underpriced", "transaction already exists"}
	insufficientFundsMessages = []string{"insufficient funds"}
)

// RPCError is returned when the node answers a call with an error.
type RPCError struct {
	Method string
	Err    error
}

func NewRPCError(method string, err error) *RPCError {
	if err == nil {
		return nil
	}
	return &RPCError{Method: method, Err: err}
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// IsNonceConflict reports whether the node refused the transaction because its nonce was already used or is in use
// by a transaction sitting in the mempool.
func (e *RPCError) IsNonceConflict() bool {
	return utils.ContainsAny(strings.ToLower(e.Err.Error()), nonceConflictMessages...)
}

// IsInsufficientFunds reports whether the sender could not pay for value + gas.
func (e *RPCError) IsInsufficientFunds() bool {
	return utils.ContainsAny(strings.ToLower(e.Err.Error()), insufficientFundsMessages...)
}

var _ error = &RPCError{}

// IsNonceConflict reports whether err wraps an RPCError caused by a nonce conflict.
func IsNonceConflict(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.IsNonceConflict()
}

// IsInsufficientFunds reports whether err wraps an RPCError caused by the sender's lack of funds.
func IsInsufficientFunds(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.IsInsufficientFunds()
}
