package bahamut

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrWrongNetwork = errors.New("rpc endpoint is not on the Bahamut network")
	ErrNoEndpoints  = errors.New("no rpc endpoints configured")
)

// Client is a JSON-RPC connection to the first healthy Bahamut endpoint.
type Client struct {
	eth      *ethclient.Client
	endpoint string
	chainID  *big.Int
	log      *zap.Logger
}

// Dial walks cfg.RPCURLs in order and keeps the first endpoint that answers
// eth_chainId. httpClient carries the retry policy for every call.
func Dial(ctx context.Context, httpClient *http.Client, cfg ChainConfig) (*Client, error) {
	log := zap.L()

	if len(cfg.RPCURLs) == 0 {
		return nil, ErrNoEndpoints
	}

	var errs *multierror.Error
	for _, endpoint := range cfg.RPCURLs {
		start := time.Now()

		rc, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(httpClient), rpc.WithHeader(FuncHeader, "jsonrpc"))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s - %w", endpoint, err))
			continue
		}

		c := &Client{
			eth:      ethclient.NewClient(rc),
			endpoint: endpoint,
			log:      log,
		}

		err = c.CheckNetwork(ctx, cfg.ChainID)
		if errors.Is(err, ErrWrongNetwork) {
			c.Close()
			return nil, err
		}
		if err != nil {
			log.Warn("rpc endpoint unavailable, trying next",
				zap.Error(err),
				zap.String("endpoint", endpoint),
				zap.Int64("durationMs", time.Since(start).Milliseconds()),
			)
			c.Close()
			errs = multierror.Append(errs, fmt.Errorf("%s - %w", endpoint, err))
			continue
		}

		log.Info("connected to rpc endpoint",
			zap.String("endpoint", endpoint),
			zap.Int64("chain_id", cfg.ChainID),
			zap.Int64("durationMs", time.Since(start).Milliseconds()),
		)
		return c, nil
	}

	return nil, fmt.Errorf("failed to connect to any rpc endpoint - %w", errs.ErrorOrNil())
}

// CheckNetwork verifies the endpoint reports the expected chain id.
func (c *Client) CheckNetwork(ctx context.Context, want int64) error {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("error calling eth_chainId - %w", err)
	}

	if id.Int64() != want {
		c.log.Warn("incorrect network",
			zap.String("endpoint", c.endpoint),
			zap.String("chain_id", id.String()),
			zap.Int64("want_chain_id", want),
		)
		return fmt.Errorf("%w - endpoint %s reports chain id %s, want %d", ErrWrongNetwork, c.endpoint, id, want)
	}

	c.chainID = id
	return nil
}

func (c *Client) ChainID() *big.Int {
	return c.chainID
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// NativeBalance returns the FTN balance of addr in token units.
func (c *Client) NativeBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	wei, err := c.eth.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error getting FTN balance - %w", err)
	}
	return FromWei(wei), nil
}

func (c *Client) Close() {
	c.eth.Close()
}
