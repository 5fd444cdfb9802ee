package wallet

import "fmt"

// InsufficientFundsError reports that CreateSend could not accumulate
// enough unspent coin to cover the requested amount (spec.md §4.6, §7).
type InsufficientFundsError struct {
	Requested int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("wallet: insufficient funds: requested %d, have %d available", e.Requested, e.Available)
}

func newInsufficientFundsError(requested, available int64) *InsufficientFundsError {
	return &InsufficientFundsError{Requested: requested, Available: available}
}

// ScriptError reports an unrecognized or malformed scriptPubKey/
// scriptSig (spec.md §7). Wallet scanning discards it without logging and
// never aborts on it; CreateSend returns it when it finds no key for the
// change output or for a selected input.
type ScriptError struct {
	Reason string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("wallet: script error: %s", e.Reason)
}

func newScriptError(format string, args ...interface{}) *ScriptError {
	return &ScriptError{Reason: fmt.Sprintf(format, args...)}
}
