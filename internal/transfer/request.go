package transfer

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/near-transfer/internal/amount"
	"github.com/quantumauth-io/near-transfer/internal/registry"
)

var ErrInvalidRequest = errors.New("invalid transfer request")

// Request is one transfer, built once per invocation and never persisted.
// Amount is whole NEAR for the native coin and raw token units for a
// fungible token.
type Request struct {
	Sender           string `json:"sender" yaml:"sender"`
	Receiver         string `json:"receiver" yaml:"receiver"`
	Amount           string `json:"amount" yaml:"amount"`
	Symbol           string `json:"symbol" yaml:"symbol"`
	Memo             string `json:"memo,omitempty" yaml:"memo,omitempty"`
	RegisterReceiver bool   `json:"register_receiver,omitempty" yaml:"register_receiver,omitempty"`
}

func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Sender) == "":
		return errors.Wrap(ErrInvalidRequest, "sender is required")
	case strings.TrimSpace(r.Receiver) == "":
		return errors.Wrap(ErrInvalidRequest, "receiver is required")
	case strings.TrimSpace(r.Symbol) == "":
		return errors.Wrap(ErrInvalidRequest, "symbol is required")
	case strings.TrimSpace(r.Amount) == "":
		return errors.Wrap(ErrInvalidRequest, "amount is required")
	}
	return nil
}

// plan is a request with its asset resolved and its amount in on-chain form.
type plan struct {
	req   Request
	asset registry.Asset

	yocto       *big.Int // native
	tokenAmount string   // fungible
	deposit     *big.Int // fungible
}

func newPlan(req Request, asset registry.Asset) (*plan, error) {
	p := &plan{req: req, asset: asset}

	switch a := asset.(type) {
	case registry.NativeCoin:
		v, err := amount.NearToYocto(req.Amount)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "amount"), ErrInvalidRequest)
		}
		p.yocto = v

	case registry.FungibleToken:
		v, err := amount.CanonicalInteger(req.Amount)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "amount"), ErrInvalidRequest)
		}
		p.tokenAmount = v

		dep, err := amount.ParseInteger(a.Deposit)
		if err != nil {
			return nil, errors.Wrapf(err, "deposit for %s", a.Symbol)
		}
		p.deposit = dep

	default:
		return nil, errors.Newf("unsupported asset %T", asset)
	}
	return p, nil
}
