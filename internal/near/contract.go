package near

import (
	"context"
	"encoding/json"
	"math/big"
	"slices"

	"github.com/cockroachdb/errors"
)

var ErrMethodNotAllowed = errors.New("contract method not allowed")

// ContractMethods is the allow-list a Contract may invoke.
type ContractMethods struct {
	ViewMethods   []string
	ChangeMethods []string
}

// Contract is a proxy for one deployed contract, called as one account.
// Only methods named in ContractMethods can be reached through it.
type Contract struct {
	account    *Account
	contractID string
	methods    ContractMethods
}

func NewContract(account *Account, contractID string, methods ContractMethods) (*Contract, error) {
	if account == nil {
		return nil, errors.New("near: contract needs an account")
	}
	if contractID == "" {
		return nil, errors.New("near: contract id is required")
	}
	for _, m := range methods.ViewMethods {
		if slices.Contains(methods.ChangeMethods, m) {
			return nil, errors.Newf("near: method %q listed as both view and change", m)
		}
	}
	return &Contract{account: account, contractID: contractID, methods: methods}, nil
}

func (c *Contract) ID() string      { return c.contractID }
func (c *Contract) Account() string { return c.account.ID() }

// View calls a read-only method with JSON args and decodes the JSON result into out.
func (c *Contract) View(ctx context.Context, method string, args any, out any) error {
	if !slices.Contains(c.methods.ViewMethods, method) {
		return errors.Wrapf(ErrMethodNotAllowed, "view %s on %s", method, c.contractID)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return errors.Wrapf(err, "marshal %s args", method)
	}
	res, err := c.account.ViewFunction(ctx, c.contractID, method, raw)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Result, out); err != nil {
		return errors.Wrapf(err, "decode %s result", method)
	}
	return nil
}

// Call submits a state-changing method with attached gas and deposit.
func (c *Contract) Call(ctx context.Context, method string, args any, gas uint64, deposit *big.Int) (*FinalExecutionOutcome, error) {
	if !slices.Contains(c.methods.ChangeMethods, method) {
		return nil, errors.Wrapf(ErrMethodNotAllowed, "change %s on %s", method, c.contractID)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s args", method)
	}
	return c.account.FunctionCall(ctx, c.contractID, method, raw, gas, deposit)
}
