// Package registry maps user-facing symbols to the asset they move: the
// native coin or a fungible token contract.
package registry

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/near-transfer/internal/amount"
	"github.com/quantumauth-io/near-transfer/internal/constants"
)

var ErrUnknownSymbol = errors.New("token not supported")

const (
	KindNative   = "native"
	KindFungible = "fungible"
)

// Asset is either NativeCoin or FungibleToken.
type Asset interface {
	AssetSymbol() string
	Kind() string
	isAsset()
}

type NativeCoin struct {
	Symbol string
}

func (n NativeCoin) AssetSymbol() string { return n.Symbol }
func (NativeCoin) Kind() string          { return KindNative }
func (NativeCoin) isAsset()              {}

// FungibleToken is a NEP-141 contract. Deposit is the yoctoNEAR attached to
// ft_transfer and depends on the contract's storage convention.
type FungibleToken struct {
	Symbol   string
	Contract string
	Deposit  string
}

func (f FungibleToken) AssetSymbol() string { return f.Symbol }
func (FungibleToken) Kind() string          { return KindFungible }
func (FungibleToken) isAsset()              {}

// Entry is the configuration form of an asset.
type Entry struct {
	Symbol   string `mapstructure:"symbol" json:"symbol" yaml:"symbol"`
	Kind     string `mapstructure:"kind" json:"kind" yaml:"kind"`
	Contract string `mapstructure:"contract" json:"contract,omitempty" yaml:"contract,omitempty"`
	Deposit  string `mapstructure:"deposit" json:"deposit,omitempty" yaml:"deposit,omitempty"`
}

// Registry is read-only after New returns.
type Registry struct {
	assets map[string]Asset
}

// Defaults mirrors the token list the tool shipped with.
func Defaults() []Entry {
	return []Entry{
		{Symbol: constants.NativeSymbol, Kind: KindNative},
		{Symbol: "PTC", Kind: KindFungible, Contract: "ft3.0xpj.testnet", Deposit: constants.DefaultTokenDeposit},
	}
}

func New(entries []Entry) (*Registry, error) {
	r := &Registry{assets: make(map[string]Asset, len(entries))}

	for i, e := range entries {
		sym := strings.TrimSpace(e.Symbol)
		if sym == "" {
			return nil, errors.Newf("registry entry %d: symbol is required", i)
		}
		if _, dup := r.assets[sym]; dup {
			return nil, errors.Newf("registry entry %d: duplicate symbol %q", i, sym)
		}

		switch strings.ToLower(strings.TrimSpace(e.Kind)) {
		case KindNative:
			r.assets[sym] = NativeCoin{Symbol: sym}

		case KindFungible:
			contract := strings.TrimSpace(e.Contract)
			if contract == "" {
				return nil, errors.Newf("registry entry %q: contract is required for fungible tokens", sym)
			}
			deposit := strings.TrimSpace(e.Deposit)
			if deposit == "" {
				deposit = constants.DefaultTokenDeposit
			}
			canon, err := amount.CanonicalInteger(deposit)
			if err != nil {
				return nil, errors.Wrapf(err, "registry entry %q: deposit", sym)
			}
			r.assets[sym] = FungibleToken{Symbol: sym, Contract: contract, Deposit: canon}

		default:
			return nil, errors.Newf("registry entry %q: unknown kind %q", sym, e.Kind)
		}
	}

	return r, nil
}

// Resolve is an exact, case-sensitive lookup.
func (r *Registry) Resolve(symbol string) (Asset, error) {
	a, ok := r.assets[symbol]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSymbol, "%q", symbol)
	}
	return a, nil
}

func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.assets))
	for s := range r.assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Entries returns the registry in configuration form, sorted by symbol.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.assets))
	for _, s := range r.Symbols() {
		switch a := r.assets[s].(type) {
		case NativeCoin:
			out = append(out, Entry{Symbol: a.Symbol, Kind: KindNative})
		case FungibleToken:
			out = append(out, Entry{Symbol: a.Symbol, Kind: KindFungible, Contract: a.Contract, Deposit: a.Deposit})
		}
	}
	return out
}
