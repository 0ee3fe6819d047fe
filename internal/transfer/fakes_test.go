package transfer

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/near-transfer/internal/credentials"
)

type fakeSource struct {
	accountID string
	err       error
	calls     int
}

func (s *fakeSource) Load(context.Context) (credentials.Credential, error) {
	s.calls++
	if s.err != nil {
		return credentials.Credential{}, s.err
	}
	return credentials.Credential{AccountID: s.accountID}, nil
}

type fakeConnector struct {
	chain *fakeChain
	err   error
	calls int
	creds []credentials.Credential
}

func (c *fakeConnector) Connect(_ context.Context, cred credentials.Credential) (Chain, error) {
	c.calls++
	c.creds = append(c.creds, cred)
	if c.err != nil {
		return nil, c.err
	}
	return c.chain, nil
}

type payment struct {
	sender, receiver string
	yocto            *big.Int
}

type fakeChain struct {
	balances map[string]*big.Int
	readErr  map[string]error
	sendErr  error
	tokenErr error

	reads     []string
	payments  []payment
	contracts []string
	token     *fakeToken
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances: map[string]*big.Int{},
		readErr:  map[string]error{},
		token:    &fakeToken{balance: "1000"},
	}
}

// networkCalls counts every operation that would have touched the network.
func (c *fakeChain) networkCalls() int {
	return len(c.reads) + len(c.payments) + c.token.calls()
}

func (c *fakeChain) AvailableBalance(_ context.Context, accountID string) (*big.Int, error) {
	c.reads = append(c.reads, accountID)
	if err := c.readErr[accountID]; err != nil {
		return nil, err
	}
	if b, ok := c.balances[accountID]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *fakeChain) SendMoney(_ context.Context, sender, receiver string, yocto *big.Int) (string, error) {
	c.payments = append(c.payments, payment{sender: sender, receiver: receiver, yocto: new(big.Int).Set(yocto)})
	if c.sendErr != nil {
		return "", c.sendErr
	}
	return "NativeTxHash", nil
}

func (c *fakeChain) Token(contractID string) (TokenContract, error) {
	c.contracts = append(c.contracts, contractID)
	if c.tokenErr != nil {
		return nil, c.tokenErr
	}
	return c.token, nil
}

func (c *fakeChain) ExplorerTxURL(hash string) string {
	if hash == "" {
		return ""
	}
	return "https://explorer.testnet.near.org/transactions/" + hash
}

type tokenCall struct {
	account, amount, memo string
	gas                   uint64
	deposit               *big.Int
}

type fakeToken struct {
	balance     string
	balanceErr  error
	transferErr error
	storageErr  error

	balanceOf []string
	transfers []tokenCall
	deposits  []tokenCall
}

func (t *fakeToken) calls() int {
	return len(t.balanceOf) + len(t.transfers) + len(t.deposits)
}

func (t *fakeToken) BalanceOf(_ context.Context, accountID string) (string, error) {
	t.balanceOf = append(t.balanceOf, accountID)
	if t.balanceErr != nil {
		return "", t.balanceErr
	}
	return t.balance, nil
}

func (t *fakeToken) Transfer(_ context.Context, receiverID, amount, memo string, gas uint64, deposit *big.Int) (string, error) {
	t.transfers = append(t.transfers, tokenCall{account: receiverID, amount: amount, memo: memo, gas: gas, deposit: deposit})
	if t.transferErr != nil {
		return "FailedTokenTx", t.transferErr
	}
	return "TokenTxHash", nil
}

func (t *fakeToken) StorageDeposit(_ context.Context, accountID string, gas uint64, deposit *big.Int) (string, error) {
	t.deposits = append(t.deposits, tokenCall{account: accountID, gas: gas, deposit: deposit})
	if t.storageErr != nil {
		return "", t.storageErr
	}
	return "StorageTxHash", nil
}

type fakeObserver struct {
	observed []string
}

func (o *fakeObserver) ObserveTransfer(kind, status string) {
	o.observed = append(o.observed, kind+"/"+status)
}

var errNetwork = errors.New("network unreachable")
