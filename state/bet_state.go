package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	pendingRedisKey = "roulette:pending"
	historyLimit    = 100
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func pendingKey(wallet string) string {
	return pendingRedisKey + ":" + wallet
}

func historyKey(wallet string) string {
	return "roulette:history:" + wallet
}

// PendingBet is a bet this service placed and has not yet seen resolved.
// Amount is in game units.
type PendingBet struct {
	Wallet   string
	Amount   decimal.Decimal
	Token    bahamut.Token
	Color    bahamut.Color
	TxHash   string
	Block    uint64
	PlacedAt time.Time
}

// BetState tracks pending bets and locally recorded history per wallet.
// The maps are authoritative; rdb, when set, persists them across restarts.
type BetState struct {
	pending map[string]PendingBet
	history map[string][]bahamut.Transaction

	rdb *redis.Client
	mu  sync.Mutex
}

func NewBetState(rdb *redis.Client) *BetState {
	return &BetState{
		pending: make(map[string]PendingBet),
		history: make(map[string][]bahamut.Transaction),
		rdb:     rdb,
	}
}

// DBSync loads persisted pending bets. History is loaded per wallet on
// first use.
func (bs *BetState) DBSync(ctx context.Context) error {
	if bs.rdb == nil {
		return nil
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	wallets, err := bs.rdb.SMembers(ctx, pendingRedisKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get pending wallets from redis db - %w", err)
	}

	for _, wallet := range wallets {
		fields, err := bs.rdb.HGetAll(ctx, pendingKey(wallet)).Result()
		if err != nil {
			return fmt.Errorf("failed to get pending bet from redis db key - %s - %w", pendingKey(wallet), err)
		}
		if len(fields) == 0 {
			continue
		}

		bet := PendingBet{
			Wallet: wallet,
			Token:  bahamut.Token(fields["token"]),
			Color:  bahamut.Color(fields["color"]),
			TxHash: fields["txHash"],
		}
		bet.Block, _ = strconv.ParseUint(fields["block"], 10, 64)
		bet.Amount, _ = decimal.NewFromString(fields["amount"])
		if ms, err := strconv.ParseInt(fields["placedAt"], 10, 64); err == nil {
			bet.PlacedAt = time.UnixMilli(ms).UTC()
		}
		bs.pending[wallet] = bet
	}

	return nil
}

func (bs *BetState) AddPending(ctx context.Context, bet PendingBet) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.pending[bet.Wallet] = bet

	if bs.rdb == nil {
		return nil
	}

	_, err := bs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, pendingRedisKey, bet.Wallet)
		pipe.HSet(ctx, pendingKey(bet.Wallet),
			"amount", bet.Amount.String(),
			"token", string(bet.Token),
			"color", string(bet.Color),
			"txHash", bet.TxHash,
			"block", bet.Block,
			"placedAt", bet.PlacedAt.UnixMilli(),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add pending bet to redis db key - %s - %w", pendingKey(bet.Wallet), err)
	}

	return nil
}

func (bs *BetState) GetPending(wallet string) (PendingBet, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bet, ok := bs.pending[wallet]
	return bet, ok
}

func (bs *BetState) RemovePending(ctx context.Context, wallet string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	delete(bs.pending, wallet)

	if bs.rdb == nil {
		return nil
	}

	_, err := bs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, pendingRedisKey, wallet)
		pipe.Del(ctx, pendingKey(wallet))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove pending bet from redis db key - %s - %w", pendingKey(wallet), err)
	}

	return nil
}

// Wallets returns every wallet with a pending bet.
func (bs *BetState) Wallets() []string {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	wallets := make([]string, 0, len(bs.pending))
	for wallet := range bs.pending {
		wallets = append(wallets, wallet)
	}
	return wallets
}

// AppendHistory records tx as the newest entry for wallet. The entry is
// kept in memory even when writing it to redis fails.
func (bs *BetState) AppendHistory(ctx context.Context, wallet string, tx bahamut.Transaction) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	txs, loadErr := bs.cachedHistory(ctx, wallet)
	txs = append([]bahamut.Transaction{tx}, txs...)
	if len(txs) > historyLimit {
		txs = txs[:historyLimit]
	}
	bs.history[wallet] = txs

	if bs.rdb == nil {
		return nil
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry - %w", err)
	}

	_, err = bs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, historyKey(wallet), data)
		pipe.LTrim(ctx, historyKey(wallet), 0, historyLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add history entry to redis db key - %s - %w", historyKey(wallet), err)
	}

	return loadErr
}

// History returns the locally recorded entries for wallet, newest first.
func (bs *BetState) History(ctx context.Context, wallet string) ([]bahamut.Transaction, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	txs, err := bs.cachedHistory(ctx, wallet)
	if err != nil {
		return nil, err
	}

	out := make([]bahamut.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

// cachedHistory loads wallet's history from redis on first use. bs.mu must
// be held.
func (bs *BetState) cachedHistory(ctx context.Context, wallet string) ([]bahamut.Transaction, error) {
	if txs, ok := bs.history[wallet]; ok || bs.rdb == nil {
		return txs, nil
	}

	raw, err := bs.rdb.LRange(ctx, historyKey(wallet), 0, historyLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get history from redis db key - %s - %w", historyKey(wallet), err)
	}

	txs := make([]bahamut.Transaction, 0, len(raw))
	for _, r := range raw {
		var tx bahamut.Transaction
		if err := json.Unmarshal([]byte(r), &tx); err != nil {
			continue
		}
		txs = append(txs, tx)
	}
	bs.history[wallet] = txs

	return txs, nil
}
