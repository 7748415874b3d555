package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrBetPending          = bahamut.ErrBetPending
	ErrInsufficientBalance = bahamut.ErrInsufficientBalance
)

var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// PocketColor returns the European wheel color of pocket n.
func PocketColor(n int) bahamut.Color {
	switch {
	case n == 0:
		return bahamut.Green
	case redPockets[n]:
		return bahamut.Red
	default:
		return bahamut.Black
	}
}

type pendingBet struct {
	betOnRed bool
	token    bahamut.Token
	amount   decimal.Decimal
	placedAt time.Time
}

type account struct {
	balances    bahamut.Balances
	withdrawals bahamut.PendingWithdrawalInfo
	pending     *pendingBet
	lastResult  *bahamut.BetResult
	history     []bahamut.Transaction
}

type Option func(*Simulator)

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithSpinner replaces the random pocket generator, n must be in 0-36.
func WithSpinner(spin func() int) Option {
	return func(s *Simulator) { s.spin = spin }
}

func WithResolveAfter(d time.Duration) Option {
	return func(s *Simulator) { s.resolveAfter = d }
}

func WithInitialBalances(ftn, lbr decimal.Decimal) Option {
	return func(s *Simulator) {
		s.initial = bahamut.Balances{FTN: ftn, LBR: lbr}
	}
}

// Simulator is an in-memory stand-in for the roulette contract. Amounts are
// token units, like the chain binding.
type Simulator struct {
	mu       sync.Mutex
	accounts map[string]*account
	block    uint64

	initial      bahamut.Balances
	resolveAfter time.Duration
	now          func() time.Time
	spin         func() int

	log *zap.Logger
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		accounts: make(map[string]*account),
		block:    1,
		initial: bahamut.Balances{
			FTN: decimal.NewFromInt(2),
			LBR: decimal.RequireFromString("1.1"),
		},
		resolveAfter: 15 * time.Second,
		now:          time.Now,
		spin:         func() int { return mrand.Intn(37) },
		log:          zap.L(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func newTxHash() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "0x" + hex.EncodeToString([]byte(uuid.NewString()))[:64]
	}
	return "0x" + hex.EncodeToString(b)
}

// account must be called with s.mu held.
func (s *Simulator) account(player string) *account {
	acc, ok := s.accounts[player]
	if !ok {
		acc = &account{
			balances: s.initial,
			withdrawals: bahamut.PendingWithdrawalInfo{
				FTN: decimal.Zero,
				LBR: decimal.Zero,
			},
		}
		s.accounts[player] = acc
	}
	return acc
}

func (s *Simulator) record(acc *account, tx bahamut.Transaction) {
	tx.ID = uuid.NewString()
	tx.Timestamp = s.now()
	acc.history = append(acc.history, tx)
}

// resolve must be called with s.mu held.
func (s *Simulator) resolve(player string, acc *account) {
	bet := acc.pending
	if bet == nil {
		return
	}

	pocket := s.spin()
	color := PocketColor(pocket)

	won := (bet.betOnRed && color == bahamut.Red) || (!bet.betOnRed && color == bahamut.Black)

	s.block++
	res := &bahamut.BetResult{
		Player:       player,
		Won:          won,
		ResultNumber: uint8(pocket),
		Color:        color,
		Token:        bet.token,
		BetAmount:    bet.amount,
		PayoutFTN:    decimal.Zero,
		PayoutLBR:    decimal.Zero,
		TxHash:       newTxHash(),
		BlockNumber:  s.block,
	}

	tx := bahamut.Transaction{
		Type:        bahamut.KindLoss,
		Amount:      bet.amount,
		Token:       bet.token,
		ResultColor: color,
		TxHash:      res.TxHash,
	}
	tx.Color = bahamut.Black
	if bet.betOnRed {
		tx.Color = bahamut.Red
	}

	if won {
		payout := bet.amount.Mul(decimal.NewFromInt(2))
		if bet.token == bahamut.LBR {
			res.PayoutLBR = payout
			acc.withdrawals.LBR = acc.withdrawals.LBR.Add(payout)
		} else {
			res.PayoutFTN = payout
			acc.withdrawals.FTN = acc.withdrawals.FTN.Add(payout)
		}
		acc.withdrawals.HasPendingWithdrawal = true
		tx.Type = bahamut.KindWin
		tx.Amount = payout
	}

	s.record(acc, tx)
	acc.lastResult = res
	acc.pending = nil

	s.log.Info("mock bet resolved",
		zap.String("wallet_addr", player),
		zap.Int("pocket", pocket),
		zap.String("color", string(color)),
		zap.Bool("won", won),
	)
}

// settle resolves the pending bet once resolveAfter has elapsed. Must be
// called with s.mu held.
func (s *Simulator) settle(player string, acc *account) {
	if acc.pending != nil && s.now().Sub(acc.pending.placedAt) >= s.resolveAfter {
		s.resolve(player, acc)
	}
}

func (s *Simulator) PlaceBet(_ context.Context, player string, betOnRed bool, amount decimal.Decimal, token bahamut.Token) (bahamut.BetReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var receipt bahamut.BetReceipt

	acc := s.account(player)
	s.settle(player, acc)

	if acc.pending != nil {
		return receipt, ErrBetPending
	}

	switch token {
	case bahamut.FTN:
		if acc.balances.FTN.LessThan(amount) {
			return receipt, fmt.Errorf("%w - have %s FTN, need %s", ErrInsufficientBalance, acc.balances.FTN, amount)
		}
		acc.balances.FTN = acc.balances.FTN.Sub(amount)
	case bahamut.LBR:
		if acc.balances.LBR.LessThan(amount) {
			return receipt, fmt.Errorf("%w - have %s LBR, need %s", ErrInsufficientBalance, acc.balances.LBR, amount)
		}
		acc.balances.LBR = acc.balances.LBR.Sub(amount)
	default:
		return receipt, fmt.Errorf("%w - got '%s'", bahamut.ErrInvalidToken, token)
	}

	acc.pending = &pendingBet{
		betOnRed: betOnRed,
		token:    token,
		amount:   amount,
		placedAt: s.now(),
	}

	s.block++
	receipt = bahamut.BetReceipt{
		TxHash:      newTxHash(),
		Player:      player,
		BetOnRed:    betOnRed,
		Token:       token,
		Amount:      amount,
		BlockNumber: s.block,
	}

	color := bahamut.Black
	if betOnRed {
		color = bahamut.Red
	}
	s.record(acc, bahamut.Transaction{
		Type:   bahamut.KindBet,
		Amount: amount,
		Token:  token,
		Color:  color,
		TxHash: receipt.TxHash,
	})

	return receipt, nil
}

// ResolvePendingBet runs the oracle for player immediately.
func (s *Simulator) ResolvePendingBet(player string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	if acc.pending == nil {
		return false
	}
	s.resolve(player, acc)
	return true
}

func (s *Simulator) PendingBet(_ context.Context, player string) (bahamut.PendingBetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	s.settle(player, acc)

	info := bahamut.PendingBetInfo{
		PendingFTN: decimal.Zero,
		PendingLBR: decimal.Zero,
	}
	if acc.pending == nil {
		return info, nil
	}

	info.IsPending = true
	betOnRed := acc.pending.betOnRed
	info.BetOnRed = &betOnRed
	if acc.pending.token == bahamut.LBR {
		info.PendingLBR = acc.pending.amount
	} else {
		info.PendingFTN = acc.pending.amount
	}

	return info, nil
}

func (s *Simulator) PendingWithdrawals(_ context.Context, player string) (bahamut.PendingWithdrawalInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	s.settle(player, acc)

	return acc.withdrawals, nil
}

// Withdraw moves pending winnings into the balances. Nothing to withdraw
// returns an empty hash and no error.
func (s *Simulator) Withdraw(_ context.Context, player string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	s.settle(player, acc)

	if !acc.withdrawals.HasPendingWithdrawal {
		return "", nil
	}

	hash := newTxHash()
	if acc.withdrawals.FTN.IsPositive() {
		acc.balances.FTN = acc.balances.FTN.Add(acc.withdrawals.FTN)
		s.record(acc, bahamut.Transaction{Type: bahamut.KindWithdraw, Amount: acc.withdrawals.FTN, Token: bahamut.FTN, TxHash: hash})
	}
	if acc.withdrawals.LBR.IsPositive() {
		acc.balances.LBR = acc.balances.LBR.Add(acc.withdrawals.LBR)
		s.record(acc, bahamut.Transaction{Type: bahamut.KindWithdraw, Amount: acc.withdrawals.LBR, Token: bahamut.LBR, TxHash: hash})
	}

	acc.withdrawals = bahamut.PendingWithdrawalInfo{FTN: decimal.Zero, LBR: decimal.Zero}
	s.block++

	return hash, nil
}

func (s *Simulator) Balances(_ context.Context, player string) (bahamut.Balances, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.account(player).balances, nil
}

func (s *Simulator) LatestResult(_ context.Context, player string) (*bahamut.BetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	s.settle(player, acc)

	if acc.lastResult == nil {
		return nil, nil
	}
	res := *acc.lastResult
	return &res, nil
}

// ResetPendingBet drops a pending bet without refunding it.
func (s *Simulator) ResetPendingBet(_ context.Context, player string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account(player).pending = nil
	return true, nil
}

func (s *Simulator) History(_ context.Context, player string) ([]bahamut.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(player)
	s.settle(player, acc)

	// newest first
	txs := make([]bahamut.Transaction, 0, len(acc.history))
	for i := len(acc.history) - 1; i >= 0; i-- {
		txs = append(txs, acc.history[i])
	}

	return txs, nil
}
