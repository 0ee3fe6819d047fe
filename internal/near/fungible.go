package near

import (
	"context"
	"math/big"
)

// FungibleTokenMethods is the NEP-141 surface this tool is allowed to touch.
var FungibleTokenMethods = ContractMethods{
	ViewMethods:   []string{"ft_balance_of"},
	ChangeMethods: []string{"mint", "storage_deposit", "ft_transfer"},
}

// FungibleToken wraps a NEP-141 contract.
type FungibleToken struct {
	contract *Contract
}

func NewFungibleToken(account *Account, contractID string) (*FungibleToken, error) {
	c, err := NewContract(account, contractID, FungibleTokenMethods)
	if err != nil {
		return nil, err
	}
	return &FungibleToken{contract: c}, nil
}

func (t *FungibleToken) ContractID() string { return t.contract.ID() }

type balanceOfArgs struct {
	AccountID string `json:"account_id"`
}

// BalanceOf returns the raw decimal balance string reported by the contract.
func (t *FungibleToken) BalanceOf(ctx context.Context, accountID string) (string, error) {
	var bal string
	if err := t.contract.View(ctx, "ft_balance_of", balanceOfArgs{AccountID: accountID}, &bal); err != nil {
		return "", err
	}
	return bal, nil
}

type transferArgs struct {
	ReceiverID string  `json:"receiver_id"`
	Amount     string  `json:"amount"`
	Memo       *string `json:"memo,omitempty"`
}

func (t *FungibleToken) Transfer(ctx context.Context, receiverID, amount, memo string, gas uint64, deposit *big.Int) (*FinalExecutionOutcome, error) {
	args := transferArgs{ReceiverID: receiverID, Amount: amount}
	if memo != "" {
		args.Memo = &memo
	}
	return t.contract.Call(ctx, "ft_transfer", args, gas, deposit)
}

type storageDepositArgs struct {
	AccountID        string `json:"account_id"`
	RegistrationOnly bool   `json:"registration_only"`
}

// StorageDeposit registers accountID with the token contract (NEP-145).
func (t *FungibleToken) StorageDeposit(ctx context.Context, accountID string, gas uint64, deposit *big.Int) (*FinalExecutionOutcome, error) {
	return t.contract.Call(ctx, "storage_deposit", storageDepositArgs{AccountID: accountID, RegistrationOnly: true}, gas, deposit)
}
