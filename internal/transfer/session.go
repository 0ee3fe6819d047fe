package transfer

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/near-transfer/internal/credentials"
	"github.com/quantumauth-io/near-transfer/internal/near"
)

// Chain is the network surface both transfer paths need.
type Chain interface {
	// AvailableBalance returns the spendable yoctoNEAR of accountID.
	AvailableBalance(ctx context.Context, accountID string) (*big.Int, error)
	// SendMoney pays yocto from sender to receiver. The hash is returned
	// whenever the transaction reached the chain, even if it failed.
	SendMoney(ctx context.Context, sender, receiver string, yocto *big.Int) (string, error)
	// Token binds a proxy for contractID that signs as the session account.
	Token(contractID string) (TokenContract, error)
	ExplorerTxURL(hash string) string
}

type TokenContract interface {
	BalanceOf(ctx context.Context, accountID string) (string, error)
	Transfer(ctx context.Context, receiverID, amount, memo string, gas uint64, deposit *big.Int) (string, error)
	StorageDeposit(ctx context.Context, accountID string, gas uint64, deposit *big.Int) (string, error)
}

// Connector is the connection factory. It is only invoked once the
// credential has been loaded.
type Connector interface {
	Connect(ctx context.Context, cred credentials.Credential) (Chain, error)
}

// NetworkSettings is the fixed configuration of the network a connector dials.
type NetworkSettings struct {
	NetworkID   string        `mapstructure:"id"`
	NodeURL     string        `mapstructure:"node_url"`
	WalletURL   string        `mapstructure:"wallet_url"`
	HelperURL   string        `mapstructure:"helper_url"`
	ExplorerURL string        `mapstructure:"explorer_url"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// NEARConnector dials a NEAR JSON-RPC node.
type NEARConnector struct {
	Network  NetworkSettings
	Observer near.Observer
}

func (c NEARConnector) Connect(_ context.Context, cred credentials.Credential) (Chain, error) {
	ks := near.NewInMemoryKeyStore()
	if cred.KeyPair != nil {
		ks.SetKey(c.Network.NetworkID, cred.AccountID, cred.KeyPair)
	}

	var opts []near.Option
	if c.Network.CallTimeout > 0 {
		opts = append(opts, near.WithCallTimeout(c.Network.CallTimeout))
	}
	if c.Observer != nil {
		opts = append(opts, near.WithObserver(c.Observer))
	}

	conn, err := near.Connect(near.ConnectionConfig{
		NetworkID:   c.Network.NetworkID,
		NodeURL:     c.Network.NodeURL,
		WalletURL:   c.Network.WalletURL,
		HelperURL:   c.Network.HelperURL,
		ExplorerURL: c.Network.ExplorerURL,
		KeyStore:    ks,
	}, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", c.Network.NetworkID)
	}
	return &nearChain{conn: conn, signer: cred.AccountID}, nil
}

type nearChain struct {
	conn   *near.Connection
	signer string
}

func (c *nearChain) AvailableBalance(ctx context.Context, accountID string) (*big.Int, error) {
	bal, err := c.conn.Account(accountID).Balance(ctx)
	if err != nil {
		return nil, err
	}
	return bal.Available, nil
}

func (c *nearChain) SendMoney(ctx context.Context, sender, receiver string, yocto *big.Int) (string, error) {
	outcome, err := c.conn.Account(sender).SendMoney(ctx, receiver, yocto)
	return outcomeHash(outcome, err), err
}

func (c *nearChain) Token(contractID string) (TokenContract, error) {
	ft, err := near.NewFungibleToken(c.conn.Account(c.signer), contractID)
	if err != nil {
		return nil, err
	}
	return &nearToken{ft: ft}, nil
}

func (c *nearChain) ExplorerTxURL(hash string) string { return c.conn.ExplorerTxURL(hash) }

type nearToken struct {
	ft *near.FungibleToken
}

func (t *nearToken) BalanceOf(ctx context.Context, accountID string) (string, error) {
	return t.ft.BalanceOf(ctx, accountID)
}

func (t *nearToken) Transfer(ctx context.Context, receiverID, amount, memo string, gas uint64, deposit *big.Int) (string, error) {
	outcome, err := t.ft.Transfer(ctx, receiverID, amount, memo, gas, deposit)
	return outcomeHash(outcome, err), err
}

func (t *nearToken) StorageDeposit(ctx context.Context, accountID string, gas uint64, deposit *big.Int) (string, error) {
	outcome, err := t.ft.StorageDeposit(ctx, accountID, gas, deposit)
	return outcomeHash(outcome, err), err
}

func outcomeHash(outcome *near.FinalExecutionOutcome, err error) string {
	var failure *near.TxFailure
	if errors.As(err, &failure) {
		return failure.Hash
	}
	if outcome != nil {
		return outcome.Transaction.Hash
	}
	return ""
}

// session is the shared setup of both paths: a loaded credential and a
// connection signing as it.
type session struct {
	cred  credentials.Credential
	chain Chain
}

func (d *Dispatcher) open(ctx context.Context) (*session, error) {
	if d.Credentials == nil {
		return nil, errors.Wrap(credentials.ErrMissingCredential, "no credential source configured")
	}
	if d.Connector == nil {
		return nil, errors.New("transfer: no connector configured")
	}
	cred, err := d.Credentials.Load(ctx)
	if err != nil {
		return nil, err
	}
	chain, err := d.Connector.Connect(ctx, cred)
	if err != nil {
		return nil, err
	}
	return &session{cred: cred, chain: chain}, nil
}
