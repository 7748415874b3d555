package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/metrics"
	"github.com/nightowlcasino/redblack/services/events"
	"github.com/nightowlcasino/redblack/services/notif"
	"github.com/nightowlcasino/redblack/state"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	// Multiplier converts game units to token units.
	Multiplier   decimal.Decimal
	PollInterval time.Duration
	PollTimeout  time.Duration
	HistoryLimit int
}

func (c *Config) setDefaults() {
	if !c.Multiplier.IsPositive() {
		c.Multiplier = bahamut.DefaultMultiplier
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 10 * time.Minute
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 10
	}
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithTxLinker(l TxLinker) Option {
	return func(s *Service) { s.links = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source used to pick the wheel slice a result lands on.
func WithRand(intn func(int) int) Option {
	return func(s *Service) { s.intn = intn }
}

type poller struct {
	gen    uint64
	cancel context.CancelFunc
}

// Service runs the bet lifecycle for any number of wallets.
type Service struct {
	component string
	contract  Contract
	state     *state.BetState
	notifier  Notifier
	events    EventPublisher
	links     TxLinker
	cfg       Config
	now       func() time.Time
	intn      func(int) int
	log       *zap.Logger

	mu          sync.Mutex
	pollers     map[string]*poller
	nextGen     uint64
	locks       map[string]*sync.Mutex
	lastResults map[string]Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan bool
}

func NewService(contract Contract, st *state.BetState, cfg Config, opts ...Option) *Service {
	cfg.setDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		component:   "game",
		contract:    contract,
		state:       st,
		notifier:    notif.Nop{},
		events:      events.Nop{},
		cfg:         cfg,
		now:         time.Now,
		intn:        rand.Intn,
		log:         zap.L(),
		pollers:     make(map[string]*poller),
		locks:       make(map[string]*sync.Mutex),
		lastResults: make(map[string]Result),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start resumes polling for every wallet persisted with a pending bet.
func (s *Service) Start() {
	for _, wallet := range s.state.Wallets() {
		s.log.Info("resuming result poll", zap.String("wallet_addr", wallet))
		s.startPoller(wallet)
	}
}

func (s *Service) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	go func() {
		s.wg.Wait()
		s.log.Info("stopping game service...")
		close(s.done)
	}()
}

func (s *Service) Wait(wg *sync.WaitGroup) {
	defer wg.Done()
	<-s.done
}

// walletLock serialises state changing operations per wallet so winnings
// are never withdrawn twice.
func (s *Service) walletLock(wallet string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[wallet]
	if !ok {
		l = &sync.Mutex{}
		s.locks[wallet] = l
	}
	return l
}

func normalize(wallet string) (string, error) {
	return bahamut.NormalizeAddress(wallet)
}

func (s *Service) txURL(hash string) string {
	if s.links == nil || hash == "" {
		return ""
	}
	return s.links.TxURL(hash)
}

func (s *Service) units(amount decimal.Decimal) decimal.Decimal {
	return bahamut.FromStake(amount, s.cfg.Multiplier)
}

func (s *Service) notify(ctx context.Context, n notif.Notif) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error("failed to send notification", zap.Error(err), zap.String("wallet_addr", n.WalletAddr), zap.String("type", n.Type))
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Error("failed to publish event", zap.Error(err), zap.String("wallet_addr", e.Wallet), zap.String("type", e.Type))
	}
}

func (s *Service) record(ctx context.Context, wallet string, tx bahamut.Transaction) {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now().UTC()
	}
	tx.ExplorerURL = s.txURL(tx.TxHash)
	if err := s.state.AppendHistory(ctx, wallet, tx); err != nil {
		s.log.Error("failed to record history", zap.Error(err), zap.String("wallet_addr", wallet))
	}
}

func (s *Service) setLastResult(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResults[res.Wallet] = res
}

// balances reads wallet balances, falling back to zero on error.
func (s *Service) balances(ctx context.Context, wallet string) bahamut.Balances {
	start := time.Now()
	b, err := s.contract.Balances(ctx, wallet)
	metrics.ObserveCall("balances", start)
	if err != nil {
		s.log.Error("failed to get balances", zap.Error(err), zap.String("wallet_addr", wallet))
		return bahamut.Balances{FTN: decimal.Zero, LBR: decimal.Zero}
	}
	return b
}

// PlaceBet validates and places bet for wallet, then starts polling for the
// result. The returned result is pending.
func (s *Service) PlaceBet(ctx context.Context, wallet string, bet Bet) (Result, error) {
	var res Result

	wallet, err := normalize(wallet)
	if err != nil {
		return res, err
	}
	if err := bet.Validate(); err != nil {
		return res, err
	}

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := s.state.GetPending(wallet); ok {
		return res, ErrBetPending
	}

	start := time.Now()
	pending, err := s.contract.PendingBet(ctx, wallet)
	metrics.ObserveCall("waitingForResult", start)
	if err != nil {
		return res, fmt.Errorf("failed to check pending bet - %w", err)
	}
	if pending.IsPending {
		return res, ErrBetPending
	}

	// winnings left from earlier bets are claimed first
	if _, err := s.claimLocked(ctx, wallet, "pre_bet"); err != nil {
		s.log.Warn("failed to claim winnings before bet", zap.Error(err), zap.String("wallet_addr", wallet))
	}

	stake := bahamut.ToStake(bet.Amount, s.cfg.Multiplier)

	start = time.Now()
	receipt, err := s.contract.PlaceBet(ctx, wallet, bet.Color == bahamut.Red, stake, bet.Token)
	metrics.ObserveCall("bet", start)
	if err != nil {
		s.log.Error("failed to place bet",
			zap.Error(err),
			zap.String("wallet_addr", wallet),
			zap.String("amount", bet.Amount.String()),
			zap.String("token", string(bet.Token)),
		)
		return res, fmt.Errorf("failed to place bet - %w", err)
	}

	placedAt := s.now().UTC()
	err = s.state.AddPending(ctx, state.PendingBet{
		Wallet:   wallet,
		Amount:   bet.Amount,
		Token:    bet.Token,
		Color:    bet.Color,
		TxHash:   receipt.TxHash,
		Block:    receipt.BlockNumber,
		PlacedAt: placedAt,
	})
	if err != nil {
		s.log.Error("failed to persist pending bet", zap.Error(err), zap.String("wallet_addr", wallet))
	}

	s.record(ctx, wallet, bahamut.Transaction{
		ID:        receipt.TxHash + "-bet",
		Timestamp: placedAt,
		Type:      bahamut.KindBet,
		Amount:    bet.Amount,
		Token:     bet.Token,
		Color:     bet.Color,
		TxHash:    receipt.TxHash,
	})

	metrics.BetsPlaced.WithLabelValues(string(bet.Token), string(bet.Color)).Inc()
	s.log.Info("bet placed",
		zap.String("wallet_addr", wallet),
		zap.String("tx_hash", receipt.TxHash),
		zap.String("amount", bet.Amount.String()),
		zap.String("token", string(bet.Token)),
		zap.String("color", string(bet.Color)),
	)

	s.notify(ctx, notif.Notif{
		Type:       notif.TypeBet,
		WalletAddr: wallet,
		Amount:     bet.Amount.String(),
		TokenName:  string(bet.Token),
		TxID:       receipt.TxHash,
		Color:      string(bet.Color),
	})
	s.publish(ctx, events.Event{
		Type:   events.BetPlaced,
		Wallet: wallet,
		TxHash: receipt.TxHash,
		Token:  string(bet.Token),
		Amount: bet.Amount.String(),
		Color:  string(bet.Color),
	})

	s.startPoller(wallet)

	res = Result{
		Wallet:      wallet,
		Outcome:     OutcomePending,
		Color:       bahamut.Green,
		BetColor:    bet.Color,
		Token:       bet.Token,
		Amount:      bet.Amount,
		Payout:      decimal.Zero,
		Message:     pendingMessage,
		TxHash:      receipt.TxHash,
		ExplorerURL: s.txURL(receipt.TxHash),
		Balances:    s.balances(ctx, wallet),
		At:          placedAt,
	}
	s.setLastResult(res)

	return res, nil
}

// CheckResult runs one poll step for wallet. It returns nil while the bet
// is still pending or when there is nothing to resolve.
func (s *Service) CheckResult(ctx context.Context, wallet string) (*Result, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return nil, err
	}

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	res, _, err := s.checkLocked(ctx, wallet)
	return res, err
}

// checkLocked resolves the wallet's bet. settled is false while the
// contract is still waiting for the oracle or winnings are left to
// withdraw. The wallet lock must be held.
func (s *Service) checkLocked(ctx context.Context, wallet string) (res *Result, settled bool, err error) {
	start := time.Now()
	pending, err := s.contract.PendingBet(ctx, wallet)
	metrics.ObserveCall("waitingForResult", start)
	if err != nil {
		metrics.PollErrors.Inc()
		return nil, false, fmt.Errorf("failed to check pending bet - %w", err)
	}
	if pending.IsPending {
		return nil, false, nil
	}

	local, hasLocal := s.state.GetPending(wallet)

	start = time.Now()
	withdrawals, wdErr := s.contract.PendingWithdrawals(ctx, wallet)
	metrics.ObserveCall("pendingWithdrawals", start)
	if wdErr != nil {
		metrics.PollErrors.Inc()
		if !hasLocal {
			return nil, false, fmt.Errorf("failed to get pending withdrawals - %w", wdErr)
		}
		s.log.Warn("failed to get pending withdrawals", zap.Error(wdErr), zap.String("wallet_addr", wallet))
		withdrawals = bahamut.PendingWithdrawalInfo{FTN: decimal.Zero, LBR: decimal.Zero}
	}

	if !hasLocal && !withdrawals.HasPendingWithdrawal {
		return nil, true, nil
	}

	start = time.Now()
	event, err := s.contract.LatestResult(ctx, wallet)
	metrics.ObserveCall("resultGenerated", start)
	if err != nil {
		s.log.Warn("failed to get result event", zap.Error(err), zap.String("wallet_addr", wallet))
		event = nil
	}
	// an event older than the bet belongs to a previous round
	if event != nil && hasLocal && event.BlockNumber < local.Block {
		event = nil
	}
	// without the event the outcome is inferred from the withdrawals
	if event == nil && wdErr != nil {
		return nil, false, fmt.Errorf("failed to get pending withdrawals - %w", wdErr)
	}

	// with no bet of ours left only collect what is waiting
	if !hasLocal && (event == nil || s.presented(ctx, wallet, event.TxHash)) {
		if _, err := s.withdrawLocked(ctx, wallet, withdrawals, "auto"); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	res = &Result{
		Wallet:   wallet,
		BetColor: local.Color,
		Token:    local.Token,
		Amount:   local.Amount,
		Payout:   decimal.Zero,
		TxHash:   local.TxHash,
		At:       s.now().UTC(),
	}
	if !hasLocal {
		res.BetColor = bahamut.Red
		res.Token = bahamut.FTN
		if !withdrawals.FTN.IsPositive() && withdrawals.LBR.IsPositive() {
			res.Token = bahamut.LBR
		}
	}

	switch {
	case event != nil:
		res.Color = event.Color
		res.Token = event.Token
		res.TxHash = event.TxHash
		if !hasLocal {
			res.Amount = s.units(event.BetAmount)
			if event.Color == bahamut.Red || event.Color == bahamut.Black {
				res.BetColor = event.Color
				if !event.Won {
					res.BetColor = event.Color.Opposite()
				}
			}
		}
		if event.Won {
			res.Outcome = OutcomeWin
			res.Payout = s.units(event.Payout())
		} else {
			res.Outcome = OutcomeLoss
		}
	case withdrawals.HasPendingWithdrawal:
		res.Outcome = OutcomeWin
		res.Color = res.BetColor
		res.Payout = s.units(withdrawals.Amount(res.Token))
	default:
		res.Outcome = OutcomeLoss
		res.Color = res.BetColor.Opposite()
	}

	if res.Amount.IsZero() && res.Outcome == OutcomeWin {
		res.Amount = res.Payout.Div(decimal.NewFromInt(2))
	}

	kind := bahamut.KindLoss
	amount := res.Amount
	if res.Outcome == OutcomeWin {
		kind = bahamut.KindWin
		amount = res.Payout
	}
	res.Message = resultMessage(res.Outcome, amount, res.Token)

	s.record(ctx, wallet, bahamut.Transaction{
		ID:          res.TxHash + "-" + string(kind),
		Timestamp:   res.At,
		Type:        kind,
		Amount:      amount,
		Token:       res.Token,
		Color:       res.BetColor,
		ResultColor: res.Color,
		TxHash:      res.TxHash,
	})

	if hasLocal {
		if err := s.state.RemovePending(ctx, wallet); err != nil {
			s.log.Error("failed to clear pending bet", zap.Error(err), zap.String("wallet_addr", wallet))
		}
	}

	metrics.BetsResolved.WithLabelValues(string(res.Token), string(res.Outcome)).Inc()
	s.log.Info("bet resolved",
		zap.String("wallet_addr", wallet),
		zap.String("result", string(res.Outcome)),
		zap.String("color", string(res.Color)),
		zap.String("amount", amount.String()),
		zap.String("token", string(res.Token)),
		zap.Bool("from_event", event != nil),
	)

	won := res.Outcome == OutcomeWin
	s.notify(ctx, notif.Notif{
		Type:       notif.TypeResult,
		WalletAddr: wallet,
		Amount:     amount.String(),
		TokenName:  string(res.Token),
		TxID:       res.TxHash,
		Result:     string(res.Outcome),
		Color:      string(res.Color),
	})
	s.publish(ctx, events.Event{
		Type:        events.BetResolved,
		Wallet:      wallet,
		TxHash:      res.TxHash,
		Token:       string(res.Token),
		Amount:      amount.String(),
		Color:       string(res.BetColor),
		ResultColor: string(res.Color),
		Won:         &won,
	})

	// the next check retries the withdrawal without showing the result again
	settled = wdErr == nil
	if withdrawals.HasPendingWithdrawal {
		if _, err := s.withdrawLocked(ctx, wallet, withdrawals, "auto"); err != nil {
			s.log.Error("failed to withdraw winnings", zap.Error(err), zap.String("wallet_addr", wallet))
			settled = false
		}
	}

	res.Rotation = Rotation(res.Color, s.intn)
	res.ExplorerURL = s.txURL(res.TxHash)
	res.Balances = s.balances(ctx, wallet)
	s.setLastResult(*res)

	return res, settled, nil
}

// presented reports whether the result in txHash is already in the
// wallet's local history.
func (s *Service) presented(ctx context.Context, wallet, txHash string) bool {
	txs, err := s.state.History(ctx, wallet)
	if err != nil {
		return false
	}
	for _, tx := range txs {
		if tx.TxHash == txHash && (tx.Type == bahamut.KindWin || tx.Type == bahamut.KindLoss) {
			return true
		}
	}
	return false
}

// pollOnce is one poller tick. It reports whether polling can stop. The
// check runs on the service context, not the poll timeout.
func (s *Service) pollOnce(wallet string) (*Result, bool, error) {
	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	return s.checkLocked(s.ctx, wallet)
}

// Spin checks the pending bet when there is one, otherwise places bet.
func (s *Service) Spin(ctx context.Context, wallet string, bet Bet) (Result, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return Result{}, err
	}

	_, hasLocal := s.state.GetPending(wallet)
	pending, err := s.contract.PendingBet(ctx, wallet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check pending bet - %w", err)
	}

	if !hasLocal && !pending.IsPending {
		return s.PlaceBet(ctx, wallet, bet)
	}

	res, err := s.CheckResult(ctx, wallet)
	if err != nil {
		return Result{}, err
	}
	if res != nil {
		return *res, nil
	}

	if last, ok := s.LastResult(wallet); ok && last.Outcome == OutcomePending {
		return last, nil
	}

	return Result{
		Wallet:   wallet,
		Outcome:  OutcomePending,
		Color:    bahamut.Green,
		Payout:   decimal.Zero,
		Message:  pendingMessage,
		Balances: s.balances(ctx, wallet),
		At:       s.now().UTC(),
	}, nil
}

// ResumePending starts or stops the wallet's poller according to the
// contract's waitingForResult.
func (s *Service) ResumePending(ctx context.Context, wallet string) (bool, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return false, err
	}

	pending, err := s.contract.PendingBet(ctx, wallet)
	if err != nil {
		return false, fmt.Errorf("failed to check pending bet - %w", err)
	}

	if pending.IsPending {
		s.startPoller(wallet)
		return true, nil
	}

	s.stopPoller(wallet, 0)
	if _, ok := s.state.GetPending(wallet); ok {
		// resolved while nobody was polling
		if _, err := s.CheckResult(ctx, wallet); err != nil {
			s.log.Warn("failed to resolve pending bet", zap.Error(err), zap.String("wallet_addr", wallet))
		}
	}
	return false, nil
}

// ClaimWinnings withdraws waiting winnings for wallet, if any.
func (s *Service) ClaimWinnings(ctx context.Context, wallet string) (Claim, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return Claim{}, err
	}

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	return s.claimLocked(ctx, wallet, "claim")
}

func (s *Service) claimLocked(ctx context.Context, wallet, trigger string) (Claim, error) {
	claim := Claim{FTNDelta: decimal.Zero, LBRDelta: decimal.Zero}

	start := time.Now()
	wd, err := s.contract.PendingWithdrawals(ctx, wallet)
	metrics.ObserveCall("pendingWithdrawals", start)
	if err != nil {
		return claim, fmt.Errorf("failed to get pending withdrawals - %w", err)
	}

	if !wd.HasPendingWithdrawal {
		claim.Balances = s.balances(ctx, wallet)
		return claim, nil
	}

	hash, err := s.withdrawLocked(ctx, wallet, wd, trigger)
	if err != nil {
		return claim, err
	}

	claim.HasResolved = true
	claim.Result = OutcomeWin
	claim.FTNDelta = s.units(wd.FTN)
	claim.LBRDelta = s.units(wd.LBR)
	claim.TxHash = hash
	claim.Balances = s.balances(ctx, wallet)

	return claim, nil
}

// withdrawLocked calls withdrawFunds and records what was withdrawn. The
// wallet lock must be held.
func (s *Service) withdrawLocked(ctx context.Context, wallet string, wd bahamut.PendingWithdrawalInfo, trigger string) (string, error) {
	start := time.Now()
	hash, err := s.contract.Withdraw(ctx, wallet)
	metrics.ObserveCall("withdrawFunds", start)
	if err != nil {
		return "", fmt.Errorf("failed to withdraw funds - %w", err)
	}
	if hash == "" {
		return "", nil
	}

	metrics.Withdrawals.WithLabelValues(trigger).Inc()

	for _, token := range []bahamut.Token{bahamut.FTN, bahamut.LBR} {
		amount := wd.Amount(token)
		if !amount.IsPositive() {
			continue
		}
		units := s.units(amount)

		s.record(ctx, wallet, bahamut.Transaction{
			ID:     hash + "-withdraw-" + string(token),
			Type:   bahamut.KindWithdraw,
			Amount: units,
			Token:  token,
			TxHash: hash,
		})
		s.notify(ctx, notif.Notif{
			Type:       notif.TypeWithdraw,
			WalletAddr: wallet,
			Amount:     units.String(),
			TokenName:  string(token),
			TxID:       hash,
		})
		s.publish(ctx, events.Event{
			Type:   events.FundsWithdrawn,
			Wallet: wallet,
			TxHash: hash,
			Token:  string(token),
			Amount: units.String(),
		})
	}

	s.log.Info("winnings withdrawn",
		zap.String("wallet_addr", wallet),
		zap.String("tx_hash", hash),
		zap.String("trigger", trigger),
		zap.Int64("durationMs", time.Since(start).Milliseconds()),
	)

	return hash, nil
}

// Withdraw withdraws all waiting winnings. An empty hash means there was
// nothing to withdraw.
func (s *Service) Withdraw(ctx context.Context, wallet string) (string, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return "", err
	}

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	wd, err := s.contract.PendingWithdrawals(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("failed to get pending withdrawals - %w", err)
	}
	if !wd.HasPendingWithdrawal {
		return "", nil
	}

	return s.withdrawLocked(ctx, wallet, wd, "manual")
}

// ResetPendingBet abandons a stuck bet and claims any winnings.
func (s *Service) ResetPendingBet(ctx context.Context, wallet string) (Claim, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return Claim{}, err
	}

	s.stopPoller(wallet, 0)

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.contract.ResetPendingBet(ctx, wallet); err != nil {
		return Claim{}, fmt.Errorf("failed to reset pending bet - %w", err)
	}

	if err := s.state.RemovePending(ctx, wallet); err != nil {
		s.log.Error("failed to clear pending bet", zap.Error(err), zap.String("wallet_addr", wallet))
	}

	s.mu.Lock()
	delete(s.lastResults, wallet)
	s.mu.Unlock()

	s.log.Info("pending bet reset", zap.String("wallet_addr", wallet))

	return s.claimLocked(ctx, wallet, "reset")
}
