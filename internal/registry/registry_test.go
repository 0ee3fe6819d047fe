package registry

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	r, err := New(Defaults())
	require.NoError(t, err)

	a, err := r.Resolve("NEAR")
	require.NoError(t, err)
	assert.Equal(t, NativeCoin{Symbol: "NEAR"}, a)

	a, err = r.Resolve("PTC")
	require.NoError(t, err)
	ft, ok := a.(FungibleToken)
	require.True(t, ok)
	assert.Equal(t, "ft3.0xpj.testnet", ft.Contract)
	assert.Equal(t, "1", ft.Deposit)

	assert.Equal(t, []string{"NEAR", "PTC"}, r.Symbols())
}

func TestResolveIsCaseSensitive(t *testing.T) {
	r, err := New(Defaults())
	require.NoError(t, err)

	for _, sym := range []string{"near", "Near", "ptc", "", "USDC"} {
		_, err := r.Resolve(sym)
		assert.True(t, errors.Is(err, ErrUnknownSymbol), sym)
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	cases := map[string][]Entry{
		"empty symbol":  {{Symbol: " ", Kind: KindNative}},
		"duplicate":     {{Symbol: "NEAR", Kind: KindNative}, {Symbol: "NEAR", Kind: KindNative}},
		"no contract":   {{Symbol: "PTC", Kind: KindFungible}},
		"unknown kind":  {{Symbol: "X", Kind: "nft"}},
		"bad deposit":   {{Symbol: "PTC", Kind: KindFungible, Contract: "ft.testnet", Deposit: "0.5"}},
		"minus deposit": {{Symbol: "PTC", Kind: KindFungible, Contract: "ft.testnet", Deposit: "-1"}},
	}

	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(entries)
			assert.Error(t, err)
		})
	}
}

func TestDepositDefaultsAndEntries(t *testing.T) {
	r, err := New([]Entry{
		{Symbol: "USDT", Kind: "Fungible", Contract: "usdt.fakes.testnet"},
		{Symbol: "NEAR", Kind: KindNative},
	})
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Symbol: "NEAR", Kind: KindNative},
		{Symbol: "USDT", Kind: KindFungible, Contract: "usdt.fakes.testnet", Deposit: "1"},
	}, r.Entries())
}
