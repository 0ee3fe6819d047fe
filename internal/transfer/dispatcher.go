// Package transfer moves NEAR or a NEP-141 token between two accounts and
// reports balances around the transfer.
package transfer

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/near-transfer/internal/amount"
	"github.com/quantumauth-io/near-transfer/internal/constants"
	"github.com/quantumauth-io/near-transfer/internal/credentials"
	"github.com/quantumauth-io/near-transfer/internal/registry"
)

// TransferObserver receives one observation per attempted transfer.
type TransferObserver interface {
	ObserveTransfer(kind, status string)
}

type Dispatcher struct {
	Registry    *registry.Registry
	Credentials credentials.Source
	Connector   Connector
	Metrics     TransferObserver

	// RegistrationDeposit is the yoctoNEAR attached to storage_deposit when
	// a request asks for the receiver to be registered first.
	RegistrationDeposit string
}

// Execute resolves and runs one transfer. The returned error is reserved for
// problems found before any network call: an invalid request, an unknown
// symbol, a missing credential or a failed connection. Anything that goes
// wrong after that is reported in the Result.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if d.Registry == nil {
		return nil, errors.New("transfer: no registry configured")
	}
	asset, err := d.Registry.Resolve(req.Symbol)
	if err != nil {
		return nil, err
	}
	p, err := newPlan(req, asset)
	if err != nil {
		return nil, err
	}

	s, err := d.open(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   uuid.New(),
		Request: req,
		Kind:    asset.Kind(),
		Signer:  s.cred.AccountID,
	}

	switch a := asset.(type) {
	case registry.NativeCoin:
		d.transferNative(ctx, s, p, res)
	case registry.FungibleToken:
		res.Contract = a.Contract
		d.transferToken(ctx, s, p, a, res)
	}

	if d.Metrics != nil {
		d.Metrics.ObserveTransfer(res.Kind, string(res.Status))
	}
	return res, nil
}

func (d *Dispatcher) transferNative(ctx context.Context, s *session, p *plan, res *Result) {
	req := p.req
	res.Submitted = p.yocto.String()

	res.Before = readNative(ctx, s.chain, res.RunID, req.Sender, req.Receiver)

	hash, err := s.chain.SendMoney(ctx, req.Sender, req.Receiver, p.yocto)
	res.TxHash = hash
	res.ExplorerURL = s.chain.ExplorerTxURL(hash)
	if err != nil {
		log.Error("transfer failed",
			"run_id", res.RunID.String(),
			"symbol", req.Symbol,
			"from", req.Sender,
			"to", req.Receiver,
			"amount", req.Amount,
			"error", err,
		)
		res.fail(err)
	} else {
		log.Info("transfer succeeded",
			"run_id", res.RunID.String(),
			"symbol", req.Symbol,
			"from", req.Sender,
			"to", req.Receiver,
			"amount", req.Amount,
			"tx", hash,
		)
		res.Status = StatusSucceeded
	}

	res.After = readNative(ctx, s.chain, res.RunID, req.Sender, req.Receiver)
}

// readNative never fails; a read error is logged and kept in the reading.
func readNative(ctx context.Context, chain Chain, runID uuid.UUID, accounts ...string) []BalanceReading {
	out := make([]BalanceReading, 0, len(accounts))
	for _, acct := range accounts {
		bal, err := chain.AvailableBalance(ctx, acct)
		if err != nil {
			log.Warn("balance read failed", "run_id", runID.String(), "account", acct, "error", err)
			out = append(out, reading(acct, "", err))
			continue
		}
		log.Info("balance", "run_id", runID.String(), "account", acct, "available", amount.YoctoToNear(bal)+" NEAR")
		out = append(out, reading(acct, bal.String(), nil))
	}
	return out
}

func (d *Dispatcher) transferToken(ctx context.Context, s *session, p *plan, token registry.FungibleToken, res *Result) {
	req := p.req
	res.Submitted = p.tokenAmount

	contract, err := s.chain.Token(token.Contract)
	if err != nil {
		log.Error("token contract unavailable", "run_id", res.RunID.String(), "symbol", token.Symbol, "contract", token.Contract, "error", err)
		res.fail(err)
		return
	}

	bal, err := contract.BalanceOf(ctx, req.Sender)
	if err != nil {
		log.Warn("token balance read failed", "run_id", res.RunID.String(), "symbol", token.Symbol, "account", req.Sender, "error", err)
	} else {
		log.Info("token balance", "run_id", res.RunID.String(), "symbol", token.Symbol, "account", req.Sender, "balance", bal)
	}
	res.Before = []BalanceReading{reading(req.Sender, bal, err)}

	if req.RegisterReceiver {
		res.Registration = d.registerReceiver(ctx, contract, token, req.Receiver, res.RunID)
	}

	hash, err := contract.Transfer(ctx, req.Receiver, p.tokenAmount, req.Memo, constants.TokenTransferGas, p.deposit)
	res.TxHash = hash
	res.ExplorerURL = s.chain.ExplorerTxURL(hash)
	if err != nil {
		log.Error("token transfer failed",
			"run_id", res.RunID.String(),
			"symbol", token.Symbol,
			"contract", token.Contract,
			"from", s.cred.AccountID,
			"to", req.Receiver,
			"amount", p.tokenAmount,
			"error", err,
		)
		res.fail(err)
		return
	}
	log.Info("token transfer succeeded",
		"run_id", res.RunID.String(),
		"symbol", token.Symbol,
		"from", s.cred.AccountID,
		"to", req.Receiver,
		"amount", p.tokenAmount,
		"tx", hash,
	)
	res.Status = StatusSucceeded
}

// registerReceiver pays NEP-145 storage for the receiver. Its failure is
// recorded and the transfer is still attempted, since the receiver is often
// registered already.
func (d *Dispatcher) registerReceiver(ctx context.Context, contract TokenContract, token registry.FungibleToken, receiver string, runID uuid.UUID) *Registration {
	reg := &Registration{Account: receiver}

	raw := strings.TrimSpace(d.RegistrationDeposit)
	if raw == "" {
		raw = constants.DefaultRegistrationDeposit
	}
	deposit, err := amount.ParseInteger(raw)
	if err != nil {
		reg.Err, reg.Error = err, err.Error()
		return reg
	}

	hash, err := contract.StorageDeposit(ctx, receiver, constants.TokenTransferGas, deposit)
	reg.TxHash = hash
	if err != nil {
		log.Warn("receiver registration failed", "run_id", runID.String(), "symbol", token.Symbol, "account", receiver, "error", err)
		reg.Err, reg.Error = err, err.Error()
		return reg
	}
	log.Info("receiver registered", "run_id", runID.String(), "symbol", token.Symbol, "account", receiver, "tx", hash)
	return reg
}
