package transfer

import (
	"github.com/google/uuid"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// BalanceReading is one observational read. Amount is yoctoNEAR for the
// native coin and raw token units for a fungible token; Err is set instead
// when the read failed.
type BalanceReading struct {
	Account string `json:"account" yaml:"account"`
	Amount  string `json:"amount,omitempty" yaml:"amount,omitempty"`
	Err     error  `json:"-" yaml:"-"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func reading(account, value string, err error) BalanceReading {
	r := BalanceReading{Account: account, Amount: value, Err: err}
	if err != nil {
		r.Amount = ""
		r.Error = err.Error()
	}
	return r
}

// Registration is the outcome of an optional storage_deposit for the receiver.
type Registration struct {
	Account string `json:"account" yaml:"account"`
	TxHash  string `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
	Err     error  `json:"-" yaml:"-"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result reports a transfer that was attempted. Failures of the transfer
// itself land in Status and Cause rather than the error return of Execute.
type Result struct {
	RunID        uuid.UUID        `json:"run_id" yaml:"run_id"`
	Request      Request          `json:"request" yaml:"request"`
	Kind         string           `json:"kind" yaml:"kind"`
	Contract     string           `json:"contract,omitempty" yaml:"contract,omitempty"`
	Signer       string           `json:"signer" yaml:"signer"`
	Submitted    string           `json:"submitted" yaml:"submitted"`
	Status       Status           `json:"status" yaml:"status"`
	Cause        error            `json:"-" yaml:"-"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	TxHash       string           `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
	ExplorerURL  string           `json:"explorer_url,omitempty" yaml:"explorer_url,omitempty"`
	Before       []BalanceReading `json:"before" yaml:"before"`
	After        []BalanceReading `json:"after,omitempty" yaml:"after,omitempty"`
	Registration *Registration    `json:"registration,omitempty" yaml:"registration,omitempty"`
}

func (r *Result) Succeeded() bool { return r.Status == StatusSucceeded }

func (r *Result) fail(err error) {
	r.Status = StatusFailed
	r.Cause = err
	r.Error = err.Error()
}
