package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"slices"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/quantumauth-io/near-transfer/internal/amount"
	"github.com/quantumauth-io/near-transfer/internal/registry"
	"github.com/quantumauth-io/near-transfer/internal/transfer"
)

var outputFormats = []string{"text", "json", "yaml"}

func validOutput(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unknown output %q (allowed: text, json, yaml)", format)
	}
	return nil
}

// render writes v as json or yaml, or calls text for the human format.
func render(w io.Writer, format string, v any, text func() (pterm.TableData, error)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		data, err := text()
		if err != nil {
			return err
		}
		s, err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Srender()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
}

func resultTable(res *transfer.Result) (pterm.TableData, error) {
	unit := res.Request.Symbol
	data := pterm.TableData{
		{"field", "value"},
		{"run", res.RunID.String()},
		{"transfer", fmt.Sprintf("%s %s  %s -> %s", res.Request.Amount, unit, res.Request.Sender, res.Request.Receiver)},
		{"signer", res.Signer},
	}
	if res.Contract != "" {
		data = append(data, []string{"contract", res.Contract})
	}
	data = append(data, []string{"status", string(res.Status)})
	if res.Error != "" {
		data = append(data, []string{"error", res.Error})
	}
	if res.TxHash != "" {
		data = append(data, []string{"tx", res.TxHash})
	}
	if res.ExplorerURL != "" {
		data = append(data, []string{"explorer", res.ExplorerURL})
	}
	if reg := res.Registration; reg != nil {
		v := "registered " + reg.Account
		if reg.Error != "" {
			v = "failed: " + reg.Error
		}
		data = append(data, []string{"registration", v})
	}

	native := res.Kind == registry.KindNative
	for _, r := range res.Before {
		data = append(data, []string{"before " + r.Account, displayReading(r, native, unit)})
	}
	for _, r := range res.After {
		data = append(data, []string{"after " + r.Account, displayReading(r, native, unit)})
	}
	return data, nil
}

func displayReading(r transfer.BalanceReading, native bool, unit string) string {
	if r.Error != "" {
		return "unavailable: " + r.Error
	}
	if !native {
		return r.Amount + " " + unit
	}
	v, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok {
		return r.Amount
	}
	return amount.YoctoToNear(v) + " " + unit
}

func balanceTable(rep *transfer.BalanceReport) (pterm.TableData, error) {
	return pterm.TableData{
		{"account", "symbol", "balance"},
		{rep.Account, rep.Symbol, rep.Display},
	}, nil
}

func tokensTable(entries []registry.Entry) (pterm.TableData, error) {
	data := pterm.TableData{{"symbol", "kind", "contract", "deposit"}}
	for _, e := range entries {
		data = append(data, []string{e.Symbol, e.Kind, e.Contract, e.Deposit})
	}
	return data, nil
}
