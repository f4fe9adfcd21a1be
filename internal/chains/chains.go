// Package chains contains shared chain definitions used across multiple packages
package chains

// ID is an EVM chain identifier as used by the quote providers.
type ID int64

// Supported blockchain networks
const (
	Ethereum  ID = 1
	Optimism  ID = 10
	BSC       ID = 56
	Polygon   ID = 137
	Base      ID = 8453
	Arbitrum  ID = 42161
	Avalanche ID = 43114
)

// NativeTokenAddress is the sentinel address quote providers use for the
// chain's native asset (ETH, MATIC, BNB, ...) in place of an ERC-20
// contract address.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

var names = map[ID]string{
	Ethereum:  "ethereum",
	Optimism:  "optimism",
	BSC:       "binance",
	Polygon:   "polygon",
	Base:      "base",
	Arbitrum:  "arbitrum",
	Avalanche: "avalanche",
}

// Name returns the human-readable network name for a chain id, or ""
// when the chain is not in the supported set.
func Name(id int64) string {
	return names[ID(id)]
}

// Supported reports whether the chain id belongs to a network the quote
// providers serve.
func Supported(id int64) bool {
	_, ok := names[ID(id)]
	return ok
}
