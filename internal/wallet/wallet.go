// Package wallet normalises EVM wallet addresses so that the session store
// and event log key consistently on the same representation regardless of
// how a caller cased its address.
package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Normalize lowercases a wallet address for use as a session-store key.
// Invariant 3 of the payment lifecycle requires a stable key per wallet;
// lowercasing (rather than EIP-55 mixed-case checksumming) is what the
// session store's lookup path uses, matching spec.md §4.3.
func Normalize(address string) string {
	if address == "" {
		return ""
	}
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// Valid reports whether address is a syntactically valid hex EVM address.
// It does not touch the network; it is a cheap input-shape check used
// before treating a string as a payee or payer.
func Valid(address string) bool {
	return common.IsHexAddress(address)
}
