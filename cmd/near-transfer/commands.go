package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/quantumauth-io/near-transfer/internal/credentials"
	"github.com/quantumauth-io/near-transfer/internal/transfer"
)

const exitTransferFailed = 2

func (a *app) transferCmd() *cobra.Command {
	var (
		req    transfer.Request
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer NEAR or a registered token",
		Long: `Transfer NEAR or a registered fungible token.

Amounts are whole NEAR for the native coin and raw token units for tokens.
Balances are read before and after; a failed transfer is reported, not fatal,
unless --strict is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := a.cfg.Transfer
			if req.Sender == "" {
				req.Sender = d.From
			}
			if req.Receiver == "" {
				req.Receiver = d.To
			}
			if req.Amount == "" {
				req.Amount = d.Amount
			}
			if req.Symbol == "" {
				req.Symbol = d.Symbol
			}

			dispatcher, err := a.dispatcher()
			if err != nil {
				return err
			}
			res, err := dispatcher.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := render(a.out, a.output, res, func() (pterm.TableData, error) { return resultTable(res) }); err != nil {
				return err
			}
			if strict && !res.Succeeded() {
				return &exitError{code: exitTransferFailed, err: errors.Wrap(res.Cause, "transfer failed")}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Sender, "from", "", "sending account (default from config)")
	f.StringVar(&req.Receiver, "to", "", "receiving account (default from config)")
	f.StringVar(&req.Amount, "amount", "", "amount to send (default from config)")
	f.StringVar(&req.Symbol, "symbol", "", "registered token symbol (default from config)")
	f.StringVar(&req.Memo, "memo", "", "memo attached to a token transfer")
	f.BoolVar(&req.RegisterReceiver, "register-receiver", false, "pay storage_deposit for the receiver before a token transfer")
	f.BoolVar(&strict, "strict", false, "exit with status 2 when the transfer fails")
	return cmd
}

func (a *app) balanceCmd() *cobra.Command {
	var account, symbol string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an account's balance of a registered token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if account == "" {
				account = a.cfg.Transfer.From
			}
			if symbol == "" {
				symbol = a.cfg.Transfer.Symbol
			}
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			rep, err := d.Balance(cmd.Context(), account, symbol)
			if err != nil {
				return err
			}
			return render(a.out, a.output, rep, func() (pterm.TableData, error) { return balanceTable(rep) })
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account to read (default: transfer.from)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "registered token symbol (default: transfer.symbol)")
	return cmd
}

func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List registered tokens",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			entries := a.registry.Entries()
			return render(a.out, a.output, entries, func() (pterm.TableData, error) { return tokensTable(entries) })
		},
	}
}

func (a *app) keystoreCmd() *cobra.Command {
	ks := &cobra.Command{
		Use:   "keystore",
		Short: "Manage the encrypted keystore",
	}

	var account string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Encrypt a private key into the keystore",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if account == "" {
				account = a.cfg.Credential.Account
			}
			path, err := a.keystorePath()
			if err != nil {
				return err
			}

			key, err := a.readSecret(fmt.Sprintf("Private key for %s: ", account))
			if err != nil {
				return err
			}
			defer clear(key)

			pw, err := credentials.ReadNewPassword(a.readSecret)
			if err != nil {
				return err
			}
			defer clear(pw)

			if err := credentials.ImportKeystore(path, account, string(key), pw); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "keystore for %s written to %s\n", account, path)
			return err
		},
	}
	imp.Flags().StringVar(&account, "account", "", "account the key signs for (default: credential.account)")

	ks.AddCommand(imp)
	return ks
}
