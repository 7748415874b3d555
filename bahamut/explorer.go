package bahamut

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FuncHeader names the operation behind an outgoing request so retries can be
// logged against it.
const FuncHeader = "redblack-func"

type TxStatus string

const (
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
	TxPending   TxStatus = "pending"
)

type receiptStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  struct {
		Status string `json:"status"`
	} `json:"result"`
}

// Explorer builds ftnscan links and queries its Etherscan compatible API.
type Explorer struct {
	client *retryablehttp.Client
	site   string
	api    string

	log *zap.Logger
}

func NewExplorer(client *retryablehttp.Client, cfg ChainConfig) *Explorer {
	return &Explorer{
		client: client,
		site:   strings.TrimRight(cfg.ExplorerURL, "/"),
		api:    cfg.ExplorerAPIURL,
		log:    zap.L(),
	}
}

func (e *Explorer) TxURL(hash string) string {
	return e.site + "/tx/" + hash
}

// TxStatus reports whether the transaction receipt is confirmed, failed or
// not yet available.
func (e *Explorer) TxStatus(ctx context.Context, hash string) (TxStatus, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("module", "transaction")
	q.Set("action", "gettxreceiptstatus")
	q.Set("txhash", hash)
	endpoint := e.api + "?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TxPending, fmt.Errorf("failed to build tx status request - %w", err)
	}
	req.Header.Set(FuncHeader, "TxStatus")

	resp, err := e.client.Do(req)
	if err != nil {
		return TxPending, fmt.Errorf("error calling explorer api - %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TxPending, fmt.Errorf("explorer api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TxPending, fmt.Errorf("error reading explorer response body - %w", err)
	}

	var status receiptStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return TxPending, fmt.Errorf("error unmarshalling explorer response - %w", err)
	}

	e.log.Debug("explorer tx status",
		zap.String("tx_hash", hash),
		zap.String("status", status.Result.Status),
		zap.Int64("durationMs", time.Since(start).Milliseconds()),
	)

	switch status.Result.Status {
	case "1":
		return TxConfirmed, nil
	case "0":
		return TxFailed, nil
	default:
		return TxPending, nil
	}
}
