package catalog

// Network is one EVM-compatible chain the gateway accepts stablecoin
// payment on.
type Network struct {
	Key          string // short alias, e.g. "base"
	CAIP2ID      string // "eip155:<chain id>"
	AssetAddress string // stablecoin contract address
	AssetName    string
	Decimals     int32
	Gasless      bool
	PayeeAddress string
	RPCEndpoint  string
	FinalityHint string
}

// Networks is the fixed catalogue of three enabled networks.
var Networks = []Network{
	{
		Key:          "base",
		CAIP2ID:      "eip155:8453",
		AssetAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		AssetName:    "USD Coin",
		Decimals:     6,
		Gasless:      false,
		PayeeAddress: "0x1111111111111111111111111111111111111111",
		RPCEndpoint:  "https://mainnet.base.org",
		FinalityHint: "~2s soft, ~15min finalized",
	},
	{
		Key:          "base-sepolia",
		CAIP2ID:      "eip155:84532",
		AssetAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		AssetName:    "USDC",
		Decimals:     6,
		Gasless:      true,
		PayeeAddress: "0x1111111111111111111111111111111111111111",
		RPCEndpoint:  "https://sepolia.base.org",
		FinalityHint: "testnet, ~2s soft",
	},
	{
		Key:          "polygon",
		CAIP2ID:      "eip155:137",
		AssetAddress: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		AssetName:    "USD Coin",
		Decimals:     6,
		Gasless:      false,
		PayeeAddress: "0x1111111111111111111111111111111111111111",
		RPCEndpoint:  "https://polygon-rpc.com",
		FinalityHint: "~2s soft, ~256 blocks finalized",
	},
}

// ByCAIP2 looks up an enabled network by its chain identifier.
func ByCAIP2(id string) (Network, bool) {
	for _, n := range Networks {
		if n.CAIP2ID == id {
			return n, true
		}
	}
	return Network{}, false
}
