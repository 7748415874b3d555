package bahamut

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSignerMismatch = errors.New("wallet address does not match the configured signer")
	ErrApprovalFailed = errors.New("error approving LBR tokens")
	ErrTxReverted     = errors.New("transaction reverted")
)

type betPlacedEvent struct {
	Player    common.Address
	BetOnRed  bool
	IsFTNBet  bool
	RequestId *big.Int
	BetValue  *big.Int
}

type resultGeneratedEvent struct {
	Player    common.Address
	Won       bool
	Result    uint8
	IsFTNBet  bool
	BetAmount *big.Int
	PayoutFTN *big.Int
	PayoutLBR *big.Int
}

type fundsWithdrawnEvent struct {
	Player    common.Address
	FtnAmount *big.Int
	LbrAmount *big.Int
}

// Roulette talks to the deployed roulette contract on behalf of one signer.
type Roulette struct {
	client   *Client
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
	lbr      *LBRToken
	key      *ecdsa.PrivateKey
	signer   common.Address
	lookback uint64
	log      *zap.Logger

	mu          sync.Mutex
	headerTimes map[uint64]time.Time
}

// NewRoulette binds the roulette and LBR contracts. lookback bounds how many
// blocks back event logs are searched.
func NewRoulette(client *Client, contracts Contracts, key *ecdsa.PrivateKey, lookback uint64) (*Roulette, error) {
	parsed, err := abi.JSON(strings.NewReader(RouletteABI))
	if err != nil {
		return nil, fmt.Errorf("error parsing roulette abi - %w", err)
	}

	lbr, err := NewLBRToken(client, contracts.LBR)
	if err != nil {
		return nil, err
	}

	addr := common.HexToAddress(contracts.Roulette)
	eth := client.Eth()

	return &Roulette{
		client:      client,
		abi:         parsed,
		address:     addr,
		contract:    bind.NewBoundContract(addr, parsed, eth, eth, eth),
		lbr:         lbr,
		key:         key,
		signer:      crypto.PubkeyToAddress(key.PublicKey),
		lookback:    lookback,
		log:         zap.L(),
		headerTimes: make(map[uint64]time.Time),
	}, nil
}

// Signer returns the checksummed address transactions are sent from.
func (r *Roulette) Signer() string {
	return r.signer.Hex()
}

func (r *Roulette) transactOpts(ctx context.Context, player string) (*bind.TransactOpts, error) {
	if common.HexToAddress(player) != r.signer {
		return nil, fmt.Errorf("%w - %s", ErrSignerMismatch, player)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(r.key, r.client.ChainID())
	if err != nil {
		return nil, fmt.Errorf("error creating transactor - %w", err)
	}
	opts.Context = ctx

	return opts, nil
}

func (r *Roulette) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, r.client.Eth(), tx)
	if err != nil {
		return nil, fmt.Errorf("error waiting for tx %s - %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w - %s", ErrTxReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

// PlaceBet sends bet(betOnRed, amount). FTN bets carry the amount as value,
// LBR bets approve the roulette contract first unless its allowance already
// covers the amount.
func (r *Roulette) PlaceBet(ctx context.Context, player string, betOnRed bool, amount decimal.Decimal, token Token) (BetReceipt, error) {
	var receipt BetReceipt

	opts, err := r.transactOpts(ctx, player)
	if err != nil {
		return receipt, err
	}

	wei := ToWei(amount)

	switch token {
	case FTN:
		opts.Value = wei
	case LBR:
		allowance, err := r.lbr.Allowance(ctx, r.signer, r.address)
		if err != nil {
			return receipt, fmt.Errorf("%w - %s", ErrApprovalFailed, err)
		}
		if allowance.Cmp(wei) >= 0 {
			opts.Value = big.NewInt(0)
			break
		}

		start := time.Now()
		approveTx, err := r.lbr.Approve(opts, r.address, wei)
		if err != nil {
			return receipt, fmt.Errorf("%w - %s", ErrApprovalFailed, err)
		}
		r.log.Info("approval transaction sent",
			zap.String("tx_hash", approveTx.Hash().Hex()),
			zap.String("amount", amount.String()),
		)

		approveReceipt, err := r.waitMined(ctx, approveTx)
		if err != nil {
			return receipt, fmt.Errorf("%w - %s", ErrApprovalFailed, err)
		}
		r.log.Info("approval confirmed",
			zap.String("tx_hash", approveTx.Hash().Hex()),
			zap.Uint64("block", approveReceipt.BlockNumber.Uint64()),
			zap.Int64("durationMs", time.Since(start).Milliseconds()),
		)

		// nonce was consumed by the approval
		opts, err = r.transactOpts(ctx, player)
		if err != nil {
			return receipt, err
		}
		opts.Value = big.NewInt(0)
	default:
		return receipt, fmt.Errorf("%w - got '%s'", ErrInvalidToken, token)
	}

	start := time.Now()
	tx, err := r.contract.Transact(opts, "bet", betOnRed, wei)
	if err != nil {
		return receipt, fmt.Errorf("error sending bet tx - %w", err)
	}
	r.log.Info("bet transaction sent",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Bool("bet_on_red", betOnRed),
		zap.String("token", string(token)),
		zap.String("amount", amount.String()),
	)

	mined, err := r.waitMined(ctx, tx)
	if err != nil {
		return receipt, err
	}
	r.log.Info("bet confirmed",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("block", mined.BlockNumber.Uint64()),
		zap.Int64("durationMs", time.Since(start).Milliseconds()),
	)

	receipt = BetReceipt{
		TxHash:      tx.Hash().Hex(),
		Player:      r.signer.Hex(),
		BetOnRed:    betOnRed,
		Token:       token,
		Amount:      amount,
		BlockNumber: mined.BlockNumber.Uint64(),
	}

	return receipt, nil
}

// PendingBet reports waitingForResult(player). The contract does not expose
// the pending amounts, so they are zero.
func (r *Roulette) PendingBet(ctx context.Context, player string) (PendingBetInfo, error) {
	info := PendingBetInfo{
		PendingFTN: decimal.Zero,
		PendingLBR: decimal.Zero,
	}

	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "waitingForResult", common.HexToAddress(player))
	if err != nil {
		return info, fmt.Errorf("error calling waitingForResult - %w", err)
	}

	info.IsPending = out[0].(bool)
	return info, nil
}

func (r *Roulette) pendingWithdrawal(ctx context.Context, method, player string) (decimal.Decimal, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, common.HexToAddress(player))
	if err != nil {
		return decimal.Zero, fmt.Errorf("error calling %s - %w", method, err)
	}
	return FromWei(out[0].(*big.Int)), nil
}

func (r *Roulette) PendingWithdrawals(ctx context.Context, player string) (PendingWithdrawalInfo, error) {
	info := PendingWithdrawalInfo{FTN: decimal.Zero, LBR: decimal.Zero}

	ftn, err := r.pendingWithdrawal(ctx, "pendingWithdrawalsFTN", player)
	if err != nil {
		return info, err
	}

	lbr, err := r.pendingWithdrawal(ctx, "pendingWithdrawalsLBR", player)
	if err != nil {
		return info, err
	}

	info.FTN = ftn
	info.LBR = lbr
	info.HasPendingWithdrawal = ftn.IsPositive() || lbr.IsPositive()

	return info, nil
}

// Withdraw calls withdrawFunds() and returns the mined tx hash.
func (r *Roulette) Withdraw(ctx context.Context, player string) (string, error) {
	opts, err := r.transactOpts(ctx, player)
	if err != nil {
		return "", err
	}

	start := time.Now()
	tx, err := r.contract.Transact(opts, "withdrawFunds")
	if err != nil {
		return "", fmt.Errorf("error sending withdrawFunds tx - %w", err)
	}

	if _, err := r.waitMined(ctx, tx); err != nil {
		return "", err
	}
	r.log.Info("winnings withdrawn",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Int64("durationMs", time.Since(start).Milliseconds()),
	)

	return tx.Hash().Hex(), nil
}

func (r *Roulette) Balances(ctx context.Context, player string) (Balances, error) {
	balances := Balances{FTN: decimal.Zero, LBR: decimal.Zero}

	ftn, err := r.client.NativeBalance(ctx, player)
	if err != nil {
		return balances, err
	}

	lbr, err := r.lbr.BalanceOf(ctx, player)
	if err != nil {
		return balances, err
	}

	balances.FTN = ftn
	balances.LBR = lbr
	return balances, nil
}

// ResetPendingBet exists for parity with the simulator; the contract offers
// no way to clear waitingForResult.
func (r *Roulette) ResetPendingBet(_ context.Context, player string) (bool, error) {
	r.log.Info("reset of a pending bet is not supported on chain", zap.String("wallet_addr", player))
	return true, nil
}

func (r *Roulette) filterLogs(ctx context.Context, player string, events ...string) ([]types.Log, error) {
	head, err := r.client.Eth().BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting block number - %w", err)
	}

	var from uint64
	if head > r.lookback {
		from = head - r.lookback
	}

	ids := make([]common.Hash, 0, len(events))
	for _, name := range events {
		ids = append(ids, r.abi.Events[name].ID)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{r.address},
		Topics:    [][]common.Hash{ids, {common.BytesToHash(common.HexToAddress(player).Bytes())}},
	}

	logs, err := r.client.Eth().FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error filtering roulette logs - %w", err)
	}

	return logs, nil
}

func (r *Roulette) decodeResult(l types.Log) (BetResult, error) {
	var ev resultGeneratedEvent
	if err := r.contract.UnpackLog(&ev, "ResultGenerated", l); err != nil {
		return BetResult{}, fmt.Errorf("error unpacking ResultGenerated - %w", err)
	}

	token := LBR
	if ev.IsFTNBet {
		token = FTN
	}

	return BetResult{
		Player:       ev.Player.Hex(),
		Won:          ev.Won,
		ResultNumber: ev.Result,
		Color:        ResultColor(ev.Result),
		Token:        token,
		BetAmount:    FromWei(ev.BetAmount),
		PayoutFTN:    FromWei(ev.PayoutFTN),
		PayoutLBR:    FromWei(ev.PayoutLBR),
		TxHash:       l.TxHash.Hex(),
		BlockNumber:  l.BlockNumber,
	}, nil
}

// LatestResult returns the newest ResultGenerated for player, or nil when
// none is found within the lookback window.
func (r *Roulette) LatestResult(ctx context.Context, player string) (*BetResult, error) {
	logs, err := r.filterLogs(ctx, player, "ResultGenerated")
	if err != nil {
		return nil, err
	}

	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].Removed {
			continue
		}
		res, err := r.decodeResult(logs[i])
		if err != nil {
			return nil, err
		}
		return &res, nil
	}

	return nil, nil
}

func (r *Roulette) blockTime(ctx context.Context, number uint64) time.Time {
	r.mu.Lock()
	ts, ok := r.headerTimes[number]
	r.mu.Unlock()
	if ok {
		return ts
	}

	header, err := r.client.Eth().HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		r.log.Warn("failed to get block header", zap.Error(err), zap.Uint64("block", number))
		return time.Time{}
	}

	ts = time.Unix(int64(header.Time), 0).UTC()
	r.mu.Lock()
	r.headerTimes[number] = ts
	r.mu.Unlock()

	return ts
}

// History rebuilds the player's bets, results and withdrawals from event
// logs, newest first. Amounts are token units.
func (r *Roulette) History(ctx context.Context, player string) ([]Transaction, error) {
	logs, err := r.filterLogs(ctx, player, "BetPlaced", "ResultGenerated", "FundsWithdrawn")
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	for _, l := range logs {
		if l.Removed || len(l.Topics) == 0 {
			continue
		}

		id := fmt.Sprintf("%s-%d", l.TxHash.Hex(), l.Index)
		ts := r.blockTime(ctx, l.BlockNumber)

		switch l.Topics[0] {
		case r.abi.Events["BetPlaced"].ID:
			var ev betPlacedEvent
			if err := r.contract.UnpackLog(&ev, "BetPlaced", l); err != nil {
				r.log.Warn("failed to unpack BetPlaced", zap.Error(err), zap.String("tx_hash", l.TxHash.Hex()))
				continue
			}
			tx := Transaction{ID: id, Timestamp: ts, Type: KindBet, Amount: FromWei(ev.BetValue), Token: LBR, Color: Black, TxHash: l.TxHash.Hex()}
			if ev.IsFTNBet {
				tx.Token = FTN
			}
			if ev.BetOnRed {
				tx.Color = Red
			}
			txs = append(txs, tx)

		case r.abi.Events["ResultGenerated"].ID:
			res, err := r.decodeResult(l)
			if err != nil {
				r.log.Warn("failed to unpack ResultGenerated", zap.Error(err), zap.String("tx_hash", l.TxHash.Hex()))
				continue
			}
			tx := Transaction{ID: id, Timestamp: ts, Type: KindLoss, Amount: res.BetAmount, Token: res.Token, ResultColor: res.Color, TxHash: res.TxHash}
			if res.Color != Green {
				tx.Color = res.Color.Opposite()
			}
			if res.Won {
				tx.Type = KindWin
				tx.Amount = res.Payout()
				tx.Color = res.Color
			}
			txs = append(txs, tx)

		case r.abi.Events["FundsWithdrawn"].ID:
			var ev fundsWithdrawnEvent
			if err := r.contract.UnpackLog(&ev, "FundsWithdrawn", l); err != nil {
				r.log.Warn("failed to unpack FundsWithdrawn", zap.Error(err), zap.String("tx_hash", l.TxHash.Hex()))
				continue
			}
			if ftn := FromWei(ev.FtnAmount); ftn.IsPositive() {
				txs = append(txs, Transaction{ID: id + "-ftn", Timestamp: ts, Type: KindWithdraw, Amount: ftn, Token: FTN, TxHash: l.TxHash.Hex()})
			}
			if lbr := FromWei(ev.LbrAmount); lbr.IsPositive() {
				txs = append(txs, Transaction{ID: id + "-lbr", Timestamp: ts, Type: KindWithdraw, Amount: lbr, Token: LBR, TxHash: l.TxHash.Hex()})
			}
		}
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})

	return txs, nil
}
