package bahamut

const (
	DefaultChainID = 5165

	DefaultRouletteAddress = "0x4802D3e13965b1553f1085E794aCB2F11308972e"
	DefaultLBRAddress      = "0x2302c75D734d53Cf511527F517716735A7A71441"
)

type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type ChainConfig struct {
	ChainID        int64    `json:"chainId"`
	ChainName      string   `json:"chainName"`
	NativeCurrency Currency `json:"nativeCurrency"`
	RPCURLs        []string `json:"rpcUrls"`
	ExplorerURL    string   `json:"blockExplorerUrl"`
	ExplorerAPIURL string   `json:"-"`
}

type Contracts struct {
	Roulette string `json:"roulette"`
	LBR      string `json:"lbr"`
}

func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		ChainID:   DefaultChainID,
		ChainName: "Bahamut Mainnet",
		NativeCurrency: Currency{
			Name:     "Fantom",
			Symbol:   "FTN",
			Decimals: Decimals,
		},
		RPCURLs:        []string{"https://rpc1.bahamut.io", "https://rpc2.bahamut.io"},
		ExplorerURL:    "https://ftnscan.com",
		ExplorerAPIURL: "https://www.ftnscan.com/api",
	}
}

func DefaultContracts() Contracts {
	return Contracts{
		Roulette: DefaultRouletteAddress,
		LBR:      DefaultLBRAddress,
	}
}
