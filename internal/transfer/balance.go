package transfer

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/near-transfer/internal/amount"
	"github.com/quantumauth-io/near-transfer/internal/credentials"
	"github.com/quantumauth-io/near-transfer/internal/registry"
)

// BalanceReport is a single read-only balance lookup.
type BalanceReport struct {
	Account  string `json:"account" yaml:"account"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Kind     string `json:"kind" yaml:"kind"`
	Contract string `json:"contract,omitempty" yaml:"contract,omitempty"`
	// Amount is yoctoNEAR or raw token units.
	Amount  string `json:"amount" yaml:"amount"`
	Display string `json:"display" yaml:"display"`
}

// Balance reads accountID's balance of symbol. View calls need no key, so the
// credential source is not consulted.
func (d *Dispatcher) Balance(ctx context.Context, accountID, symbol string) (*BalanceReport, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "account is required")
	}
	if d.Registry == nil || d.Connector == nil {
		return nil, errors.New("transfer: dispatcher is not configured")
	}
	asset, err := d.Registry.Resolve(symbol)
	if err != nil {
		return nil, err
	}

	chain, err := d.Connector.Connect(ctx, credentials.Credential{AccountID: accountID})
	if err != nil {
		return nil, err
	}

	rep := &BalanceReport{Account: accountID, Symbol: asset.AssetSymbol(), Kind: asset.Kind()}

	switch a := asset.(type) {
	case registry.NativeCoin:
		bal, err := chain.AvailableBalance(ctx, accountID)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %s", accountID)
		}
		rep.Amount = bal.String()
		rep.Display = amount.YoctoToNear(bal) + " " + a.Symbol

	case registry.FungibleToken:
		rep.Contract = a.Contract
		token, err := chain.Token(a.Contract)
		if err != nil {
			return nil, err
		}
		bal, err := token.BalanceOf(ctx, accountID)
		if err != nil {
			return nil, errors.Wrapf(err, "%s balance of %s", a.Symbol, accountID)
		}
		rep.Amount = bal
		rep.Display = bal + " " + a.Symbol
	}
	return rep, nil
}
