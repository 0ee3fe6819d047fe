package near

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// ConnectionConfig names the network a Connection talks to. Wallet, helper and
// explorer URLs are carried for display; only NodeURL is dialed.
type ConnectionConfig struct {
	NetworkID   string
	NodeURL     string
	WalletURL   string
	HelperURL   string
	ExplorerURL string
	KeyStore    *KeyStore
}

type Connection struct {
	cfg    ConnectionConfig
	client *Client

	storageMu      sync.Mutex
	storagePerByte *big.Int
}

func Connect(cfg ConnectionConfig, opts ...Option) (*Connection, error) {
	if strings.TrimSpace(cfg.NetworkID) == "" {
		return nil, errors.New("near: network id is required")
	}
	if cfg.KeyStore == nil {
		cfg.KeyStore = NewInMemoryKeyStore()
	}

	client, err := NewClient(cfg.NodeURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Connection{cfg: cfg, client: client}, nil
}

func (c *Connection) NetworkID() string { return c.cfg.NetworkID }
func (c *Connection) Client() *Client   { return c.client }

// ExplorerTxURL links a transaction hash on the configured explorer.
func (c *Connection) ExplorerTxURL(hash string) string {
	if c.cfg.ExplorerURL == "" || hash == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.ExplorerURL, "/") + "/transactions/" + hash
}

// Account returns a handle; no RPC happens until a method is called.
func (c *Connection) Account(accountID string) *Account {
	return &Account{conn: c, id: accountID}
}

func (c *Connection) storageAmountPerByte(ctx context.Context) (*big.Int, error) {
	c.storageMu.Lock()
	defer c.storageMu.Unlock()

	if c.storagePerByte != nil {
		return c.storagePerByte, nil
	}

	pc, err := c.client.ProtocolConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "protocol config")
	}
	v, ok := new(big.Int).SetString(pc.RuntimeConfig.StorageAmountPerByte, 10)
	if !ok {
		return nil, errors.Newf("invalid storage_amount_per_byte %q", pc.RuntimeConfig.StorageAmountPerByte)
	}
	c.storagePerByte = v
	return v, nil
}

type Account struct {
	conn *Connection
	id   string
}

func (a *Account) ID() string { return a.id }

func (a *Account) State(ctx context.Context) (*AccountView, error) {
	return a.conn.client.ViewAccount(ctx, a.id)
}

// AccountBalance follows near-api-js: available excludes whichever is larger
// of the staked amount and the storage-locked amount.
type AccountBalance struct {
	Total       *big.Int
	StateStaked *big.Int
	Staked      *big.Int
	Available   *big.Int
}

func (a *Account) Balance(ctx context.Context) (*AccountBalance, error) {
	state, err := a.State(ctx)
	if err != nil {
		return nil, err
	}
	perByte, err := a.conn.storageAmountPerByte(ctx)
	if err != nil {
		return nil, err
	}
	return computeBalance(state, perByte)
}

func computeBalance(state *AccountView, perByte *big.Int) (*AccountBalance, error) {
	amount, ok := new(big.Int).SetString(state.Amount, 10)
	if !ok {
		return nil, errors.Newf("invalid account amount %q", state.Amount)
	}
	staked := new(big.Int)
	if state.Locked != "" {
		if _, ok := staked.SetString(state.Locked, 10); !ok {
			return nil, errors.Newf("invalid locked amount %q", state.Locked)
		}
	}

	stateStaked := new(big.Int).Mul(new(big.Int).SetUint64(state.StorageUsage), perByte)
	total := new(big.Int).Add(amount, staked)

	reserved := staked
	if stateStaked.Cmp(reserved) > 0 {
		reserved = stateStaked
	}
	available := new(big.Int).Sub(total, reserved)
	if available.Sign() < 0 {
		available.SetInt64(0)
	}

	return &AccountBalance{
		Total:       total,
		StateStaked: stateStaked,
		Staked:      staked,
		Available:   available,
	}, nil
}

func (a *Account) SendMoney(ctx context.Context, receiverID string, yocto *big.Int) (*FinalExecutionOutcome, error) {
	if yocto == nil || yocto.Sign() < 0 {
		return nil, errors.New("near: send amount must be non-negative")
	}
	return a.signAndSend(ctx, receiverID, []Action{TransferAction{Deposit: yocto}})
}

func (a *Account) FunctionCall(ctx context.Context, contractID, method string, args []byte, gas uint64, deposit *big.Int) (*FinalExecutionOutcome, error) {
	return a.signAndSend(ctx, contractID, []Action{FunctionCallAction{
		MethodName: method,
		Args:       args,
		Gas:        gas,
		Deposit:    deposit,
	}})
}

func (a *Account) ViewFunction(ctx context.Context, contractID, method string, args []byte) (*CallResult, error) {
	return a.conn.client.CallFunction(ctx, contractID, method, args)
}

func (a *Account) signAndSend(ctx context.Context, receiverID string, actions []Action) (*FinalExecutionOutcome, error) {
	kp, err := a.conn.cfg.KeyStore.GetKey(a.conn.cfg.NetworkID, a.id)
	if err != nil {
		return nil, err
	}

	ak, err := a.conn.client.ViewAccessKey(ctx, a.id, kp.PublicKey())
	if err != nil {
		return nil, errors.Wrapf(err, "access key for %s", a.id)
	}
	blockHash, err := decodeBlockHash(ak.BlockHash)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		SignerID:   a.id,
		PublicKey:  kp.PublicKey(),
		Nonce:      ak.Nonce + 1,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
		Actions:    actions,
	}
	signed, err := SignTransaction(tx, kp)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	// A transport error does not mean the node dropped the transaction, so the
	// locally computed hash is kept for lookup.
	outcome, err := a.conn.client.BroadcastTxCommit(ctx, signed.Base64())
	if outcome == nil {
		outcome = &FinalExecutionOutcome{}
	}
	if outcome.Transaction.Hash == "" {
		outcome.Transaction.Hash = signed.HashString()
	}
	var failure *TxFailure
	if errors.As(err, &failure) && failure.Hash == "" {
		failure.Hash = outcome.Transaction.Hash
	}
	return outcome, err
}
