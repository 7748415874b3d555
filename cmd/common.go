package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/nats-io/nats.go"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/config"
	"github.com/nightowlcasino/redblack/services/events"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/nightowlcasino/redblack/services/mock"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// backend is the contract implementation selected by config.backend.
type backend struct {
	name     string
	contract game.Contract
	// signer is the wallet the backend sends transactions for, empty for mock
	signer string
	links  game.TxLinker
	client *bahamut.Client
}

func (b *backend) Close() {
	if b.client != nil {
		b.client.Close()
	}
}

type eventSink interface {
	game.EventPublisher
	Close() error
}

func newRetryClient() *retryablehttp.Client {
	t := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 3 * time.Second,
		}).Dial,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 100,
		TLSHandshakeTimeout: 3 * time.Second,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = t
	retryClient.HTTPClient.Timeout = time.Second * 10
	retryClient.Logger = nil
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 250 * time.Millisecond
	retryClient.RetryMax = 2
	retryClient.RequestLogHook = func(l retryablehttp.Logger, r *http.Request, i int) {
		retryCount := i
		if retryCount > 0 {
			log.Info("retryClient request failed, retrying...",
				zap.String("url", r.URL.String()),
				zap.String("func", r.Header.Get(bahamut.FuncHeader)),
				zap.Int("retryCount", retryCount),
			)
		}
	}

	return retryClient
}

func chainConfig() bahamut.ChainConfig {
	cfg := bahamut.DefaultChainConfig()
	cfg.ChainID = viper.GetInt64("bahamut.chain_id")
	cfg.ChainName = viper.GetString("bahamut.chain_name")
	cfg.RPCURLs = viper.GetStringSlice("bahamut.rpc_urls")
	cfg.ExplorerURL = viper.GetString("bahamut.explorer_url")
	cfg.ExplorerAPIURL = viper.GetString("bahamut.explorer_api_url")
	return cfg
}

func contracts() bahamut.Contracts {
	return bahamut.Contracts{
		Roulette: viper.GetString("contracts.roulette"),
		LBR:      viper.GetString("contracts.lbr"),
	}
}

func newBackend(ctx context.Context, retryClient *retryablehttp.Client) (*backend, error) {
	name, err := config.Backend()
	if err != nil {
		return nil, err
	}

	if name == config.BackendMock {
		ftn, err := decimal.NewFromString(viper.GetString("mock.ftn_balance"))
		if err != nil {
			return nil, fmt.Errorf("invalid mock.ftn_balance - %w", err)
		}
		lbr, err := decimal.NewFromString(viper.GetString("mock.lbr_balance"))
		if err != nil {
			return nil, fmt.Errorf("invalid mock.lbr_balance - %w", err)
		}

		log.Info("using in-memory mock backend")
		sim := mock.NewSimulator(
			mock.WithResolveAfter(viper.GetDuration("mock.resolve_after")),
			mock.WithInitialBalances(ftn, lbr),
		)
		return &backend{name: name, contract: sim}, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(viper.GetString("wallet.private_key"), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet.private_key - %w", err)
	}

	cfg := chainConfig()
	client, err := bahamut.Dial(ctx, retryClient.StandardClient(), cfg)
	if err != nil {
		return nil, err
	}

	roulette, err := bahamut.NewRoulette(client, contracts(), key, viper.GetUint64("roulette.log_lookback_blocks"))
	if err != nil {
		client.Close()
		return nil, err
	}

	log.Info("connected to bahamut",
		zap.String("endpoint", client.Endpoint()),
		zap.String("signer", roulette.Signer()),
	)

	return &backend{
		name:     name,
		contract: roulette,
		signer:   roulette.Signer(),
		links:    bahamut.NewExplorer(retryClient, cfg),
		client:   client,
	}, nil
}

// newRedis returns nil when redis is unreachable, leaving state in memory.
func newRedis(ctx context.Context) *redis.Client {
	addr := viper.GetString("redis.addr")
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Error("failed to connect to redis db, keeping state in memory", zap.Error(err), zap.String("endpoint", addr))
		rdb.Close()
		return nil
	}
	return rdb
}

// newNats returns nil when nats is unreachable, disabling notifications.
func newNats() *nats.Conn {
	endpoint := viper.GetString("nats.endpoint")
	nc, err := nats.Connect(endpoint)
	if err != nil {
		log.Error("failed to connect to nats server, notifications are disabled", zap.Error(err), zap.String("endpoint", endpoint))
		return nil
	}
	return nc
}

func newEvents() eventSink {
	brokers := viper.GetStringSlice("kafka.brokers")
	if len(brokers) == 0 {
		return events.Nop{}
	}
	log.Info("publishing lifecycle events to kafka", zap.Strings("brokers", brokers), zap.String("topic", viper.GetString("kafka.topic")))
	return events.NewKafkaPublisher(brokers, viper.GetString("kafka.topic"))
}

func gameConfig() (game.Config, error) {
	multiplier, err := decimal.NewFromString(viper.GetString("roulette.bet_multiplier"))
	if err != nil || !multiplier.IsPositive() {
		return game.Config{}, fmt.Errorf("%w - got '%s'", config.ErrBadMultiplier, viper.GetString("roulette.bet_multiplier"))
	}

	return game.Config{
		Multiplier:   multiplier,
		PollInterval: viper.GetDuration("roulette.poll_interval"),
		PollTimeout:  viper.GetDuration("roulette.poll_timeout"),
		HistoryLimit: viper.GetInt("roulette.history_limit"),
	}, nil
}
