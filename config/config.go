package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nightowlcasino/redblack/logger"
	"github.com/spf13/viper"
)

const (
	Application     = "redblack"
	ApplicationFull = "RedBlack Roulette Services"

	BackendChain = "chain"
	BackendMock  = "mock"
)

var (
	ErrMissingWalletKey  = errors.New("config wallet.private_key is missing")
	ErrMissingWalletAddr = errors.New("config wallet.address is missing")
	ErrUnknownBackend    = errors.New("config backend must be either 'chain' or 'mock'")
	ErrBadMultiplier     = errors.New("config roulette.bet_multiplier must be a positive decimal")
)

func SetLoggingDefaults() {
	if value := viper.Get("logging.level"); value != nil {
		// logger will default to info level if user provided level is incorrect
		logger.SetLevel(viper.GetString("logging.level"))
	} else {
		logger.SetLevel("info")
	}
}

func SetNetworkDefaults() {
	if value := viper.Get("bahamut.chain_id"); value == nil {
		viper.Set("bahamut.chain_id", 5165)
	}

	if value := viper.Get("bahamut.chain_name"); value == nil {
		viper.Set("bahamut.chain_name", "Bahamut Mainnet")
	}

	if value := viper.Get("bahamut.rpc_urls"); value == nil {
		viper.Set("bahamut.rpc_urls", []string{"https://rpc1.bahamut.io", "https://rpc2.bahamut.io"})
	}

	if value := viper.Get("bahamut.explorer_url"); value == nil {
		viper.Set("bahamut.explorer_url", "https://ftnscan.com")
	}

	if value := viper.Get("bahamut.explorer_api_url"); value == nil {
		viper.Set("bahamut.explorer_api_url", "https://www.ftnscan.com/api")
	}

	if value := viper.Get("contracts.roulette"); value == nil {
		viper.Set("contracts.roulette", "0x4802D3e13965b1553f1085E794aCB2F11308972e")
	}

	if value := viper.Get("contracts.lbr"); value == nil {
		viper.Set("contracts.lbr", "0x2302c75D734d53Cf511527F517716735A7A71441")
	}
}

func SetRouletteDefaults() {
	if value := viper.Get("backend"); value == nil {
		viper.Set("backend", BackendChain)
	}

	// 100 game units placed in the client are 0.01 tokens on chain
	if value := viper.Get("roulette.bet_multiplier"); value == nil {
		viper.Set("roulette.bet_multiplier", "0.0001")
	}

	if value := viper.Get("roulette.poll_interval"); value == nil {
		viper.Set("roulette.poll_interval", 10*time.Second)
	}

	if value := viper.Get("roulette.poll_timeout"); value == nil {
		viper.Set("roulette.poll_timeout", 10*time.Minute)
	}

	if value := viper.Get("roulette.history_limit"); value == nil {
		viper.Set("roulette.history_limit", 10)
	}

	if value := viper.Get("roulette.log_lookback_blocks"); value == nil {
		viper.Set("roulette.log_lookback_blocks", 50000)
	}
}

func SetMockDefaults() {
	if value := viper.Get("mock.resolve_after"); value == nil {
		viper.Set("mock.resolve_after", 15*time.Second)
	}

	if value := viper.Get("mock.ftn_balance"); value == nil {
		viper.Set("mock.ftn_balance", "2")
	}

	if value := viper.Get("mock.lbr_balance"); value == nil {
		viper.Set("mock.lbr_balance", "1.1")
	}
}

func SetBrokerDefaults() {
	if value := viper.Get("redis.addr"); value == nil {
		viper.Set("redis.addr", "localhost:6379")
	}

	if value := viper.Get("redis.db"); value == nil {
		viper.Set("redis.db", 0)
	}

	if value := viper.Get("nats.endpoint"); value == nil {
		viper.Set("nats.endpoint", "nats://127.0.0.1:4222")
	}

	if value := viper.Get("nats.notif_payouts_subj"); value == nil {
		viper.Set("nats.notif_payouts_subj", "notif.payouts")
	}

	if value := viper.Get("nats.ack_timeout"); value == nil {
		viper.Set("nats.ack_timeout", 10*time.Second)
	}

	if value := viper.Get("kafka.topic"); value == nil {
		viper.Set("kafka.topic", "roulette.lifecycle")
	}
}

func SetAPIDefaults() {
	if value := viper.Get("api.port"); value == nil {
		viper.Set("api.port", 8089)
	}

	// requests per second per client on the bet routes
	if value := viper.Get("api.rate_limit"); value == nil {
		viper.Set("api.rate_limit", 5.0)
	}
}

// SetDefaults applies every default and validates the values the selected
// backend cannot run without.
func SetDefaults() error {
	SetLoggingDefaults()
	SetNetworkDefaults()
	SetRouletteDefaults()
	SetMockDefaults()
	SetBrokerDefaults()
	SetAPIDefaults()

	backend, err := Backend()
	if err != nil {
		return err
	}

	if backend == BackendChain && viper.GetString("wallet.private_key") == "" {
		return ErrMissingWalletKey
	}

	return nil
}

func Backend() (string, error) {
	switch b := viper.GetString("backend"); b {
	case BackendChain, BackendMock:
		return b, nil
	default:
		return "", fmt.Errorf("%w - got '%s'", ErrUnknownBackend, b)
	}
}
