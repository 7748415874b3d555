package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/services/events"
	"github.com/nightowlcasino/redblack/services/mock"
	"github.com/nightowlcasino/redblack/services/notif"
	"github.com/nightowlcasino/redblack/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawWallet = "0x00000000000000000000000000000000000000aa"

var wallet = common.HexToAddress(rawWallet).Hex()

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	notifs []notif.Notif
	events []events.Event
}

func (r *recorder) Notify(_ context.Context, n notif.Notif) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifs = append(r.notifs, n)
	return nil
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) notifTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, n := range r.notifs {
		types = append(types, n.Type)
	}
	return types
}

func (r *recorder) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

// noEvents hides ResultGenerated so results have to be inferred.
type noEvents struct {
	*mock.Simulator
}

func (noEvents) LatestResult(context.Context, string) (*bahamut.BetResult, error) {
	return nil, nil
}

var errRPC = errors.New("rpc unavailable")

// flaky fails the first withdrawal calls it sees.
type flaky struct {
	*mock.Simulator
	hideEvents     bool
	withdrawalErrs int
	withdrawErrs   int
}

func (c *flaky) PendingWithdrawals(ctx context.Context, player string) (bahamut.PendingWithdrawalInfo, error) {
	if c.withdrawalErrs > 0 {
		c.withdrawalErrs--
		return bahamut.PendingWithdrawalInfo{}, errRPC
	}
	return c.Simulator.PendingWithdrawals(ctx, player)
}

func (c *flaky) Withdraw(ctx context.Context, player string) (string, error) {
	if c.withdrawErrs > 0 {
		c.withdrawErrs--
		return "", errRPC
	}
	return c.Simulator.Withdraw(ctx, player)
}

func (c *flaky) LatestResult(ctx context.Context, player string) (*bahamut.BetResult, error) {
	if c.hideEvents {
		return nil, nil
	}
	return c.Simulator.LatestResult(ctx, player)
}

type fixture struct {
	svc   *Service
	sim   *mock.Simulator
	clock *fakeClock
	rec   *recorder
	state *state.BetState
}

func newFixture(t *testing.T, pocket int, wrap func(*mock.Simulator) Contract, simOpts ...mock.Option) *fixture {
	return newFixtureConfig(t, Config{PollInterval: time.Hour}, pocket, wrap, simOpts...)
}

func newFixtureConfig(t *testing.T, cfg Config, pocket int, wrap func(*mock.Simulator) Contract, simOpts ...mock.Option) *fixture {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	opts := append([]mock.Option{
		mock.WithClock(clock.Now),
		mock.WithSpinner(func() int { return pocket }),
		mock.WithResolveAfter(15 * time.Second),
	}, simOpts...)
	sim := mock.NewSimulator(opts...)

	var contract Contract = sim
	if wrap != nil {
		contract = wrap(sim)
	}

	rec := &recorder{}
	st := state.NewBetState(nil)
	svc := NewService(contract, st, cfg,
		WithClock(clock.Now),
		WithRand(func(int) int { return 0 }),
		WithNotifier(rec),
		WithEvents(rec),
	)

	t.Cleanup(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		svc.Stop()
		svc.Wait(&wg)
		wg.Wait()
	})

	return &fixture{svc: svc, sim: sim, clock: clock, rec: rec, state: st}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func redBet(amount string) Bet {
	return Bet{Amount: dec(amount), Token: bahamut.FTN, Color: bahamut.Red}
}

func TestBetValidate(t *testing.T) {
	testCases := []struct {
		name string
		bet  Bet
		err  error
	}{
		{"TestValid", Bet{Amount: dec("0.5"), Token: bahamut.LBR, Color: bahamut.Black}, nil},
		{"TestBadAmount", Bet{Amount: dec("2"), Token: bahamut.FTN, Color: bahamut.Red}, ErrInvalidAmount},
		{"TestBadToken", Bet{Amount: dec("1"), Token: "ETH", Color: bahamut.Red}, ErrInvalidToken},
		{"TestGreen", Bet{Amount: dec("1"), Token: bahamut.FTN, Color: bahamut.Green}, ErrInvalidColor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.bet.Validate()
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestPlaceBetAndWin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	res, err := f.svc.PlaceBet(ctx, rawWallet, redBet("10"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, bahamut.Green, res.Color)
	assert.Equal(t, wallet, res.Wallet)
	assert.True(t, dec("1.999").Equal(res.Balances.FTN), "got %s", res.Balances.FTN)
	assert.True(t, f.svc.Polling(wallet))

	check, err := f.svc.CheckResult(ctx, wallet)
	require.NoError(t, err)
	assert.Nil(t, check)

	f.clock.Advance(15 * time.Second)

	check, err = f.svc.CheckResult(ctx, wallet)
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.Equal(t, OutcomeWin, check.Outcome)
	assert.Equal(t, bahamut.Red, check.Color)
	assert.True(t, dec("20").Equal(check.Payout), "got %s", check.Payout)
	assert.Equal(t, "You won 20 FTN!", check.Message)
	assert.Equal(t, 1800.0, check.Rotation)
	assert.True(t, dec("2.001").Equal(check.Balances.FTN), "got %s", check.Balances.FTN)

	_, pending := f.state.GetPending(wallet)
	assert.False(t, pending)

	wd, err := f.svc.PendingWithdrawals(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, wd.HasPendingWithdrawal)

	last, ok := f.svc.LastResult(rawWallet)
	require.True(t, ok)
	assert.Equal(t, OutcomeWin, last.Outcome)

	history, err := f.svc.History(ctx, wallet, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, bahamut.KindWithdraw, history[0].Type)
	assert.Equal(t, bahamut.KindWin, history[1].Type)
	assert.Equal(t, bahamut.KindBet, history[2].Type)
	assert.True(t, dec("10").Equal(history[2].Amount))
	assert.True(t, dec("20").Equal(history[0].Amount))

	assert.Equal(t, []string{notif.TypeBet, notif.TypeResult, notif.TypeWithdraw}, f.rec.notifTypes())
	assert.Equal(t, []string{events.BetPlaced, events.BetResolved, events.FundsWithdrawn}, f.rec.eventTypes())
}

func TestPlaceBetLoss(t *testing.T) {
	testCases := []struct {
		name    string
		pocket  int
		color   bahamut.Color
		message string
	}{
		{"TestBlackPocket", 2, bahamut.Black, "You lost 10 FTN."},
		{"TestGreenPocket", 0, bahamut.Green, "You lost 10 FTN."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tc.pocket, nil)

			_, err := f.svc.PlaceBet(ctx, wallet, redBet("10"))
			require.NoError(t, err)

			f.clock.Advance(15 * time.Second)

			res, err := f.svc.CheckResult(ctx, wallet)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, OutcomeLoss, res.Outcome)
			assert.Equal(t, tc.color, res.Color)
			assert.Equal(t, tc.message, res.Message)
			assert.True(t, res.Payout.IsZero())
			assert.True(t, dec("1.999").Equal(res.Balances.FTN))
		})
	}
}

func TestInferredResult(t *testing.T) {
	testCases := []struct {
		name    string
		pocket  int
		outcome Outcome
		color   bahamut.Color
	}{
		{"TestWinTakesBetColor", 1, OutcomeWin, bahamut.Red},
		{"TestLossTakesOppositeColor", 2, OutcomeLoss, bahamut.Black},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tc.pocket, func(sim *mock.Simulator) Contract { return noEvents{sim} })

			_, err := f.svc.PlaceBet(ctx, wallet, redBet("5"))
			require.NoError(t, err)
			f.clock.Advance(15 * time.Second)

			res, err := f.svc.CheckResult(ctx, wallet)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.color, res.Color)
		})
	}
}

func TestPlaceBetErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("TestInvalidWallet", func(t *testing.T) {
		f := newFixture(t, 1, nil)
		_, err := f.svc.PlaceBet(ctx, "nope", redBet("1"))
		assert.ErrorIs(t, err, ErrInvalidWallet)
	})

	t.Run("TestAlreadyPending", func(t *testing.T) {
		f := newFixture(t, 1, nil)
		_, err := f.svc.PlaceBet(ctx, wallet, redBet("1"))
		require.NoError(t, err)

		_, err = f.svc.PlaceBet(ctx, wallet, redBet("1"))
		assert.ErrorIs(t, err, ErrBetPending)
	})

	t.Run("TestPendingOnChain", func(t *testing.T) {
		f := newFixture(t, 1, nil)
		_, err := f.sim.PlaceBet(ctx, wallet, true, dec("0.0001"), bahamut.FTN)
		require.NoError(t, err)

		_, err = f.svc.PlaceBet(ctx, wallet, redBet("1"))
		assert.ErrorIs(t, err, ErrBetPending)
	})

	t.Run("TestInsufficientBalance", func(t *testing.T) {
		f := newFixture(t, 1, nil, mock.WithInitialBalances(dec("0.0001"), dec("0")))
		_, err := f.svc.PlaceBet(ctx, wallet, redBet("25"))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.False(t, f.svc.Polling(wallet))
	})
}

func TestSpin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	res, err := f.svc.Spin(ctx, wallet, redBet("1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)

	res, err = f.svc.Spin(ctx, wallet, redBet("1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)

	f.clock.Advance(20 * time.Second)

	res, err = f.svc.Spin(ctx, wallet, redBet("1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, res.Outcome)

	res, err = f.svc.Spin(ctx, wallet, redBet("0.5"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.True(t, dec("0.5").Equal(res.Amount))
}

func TestClaimWinnings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	claim, err := f.svc.ClaimWinnings(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, claim.HasResolved)

	_, err = f.sim.PlaceBet(ctx, wallet, true, dec("0.001"), bahamut.LBR)
	require.NoError(t, err)
	require.True(t, f.sim.ResolvePendingBet(wallet))

	claim, err = f.svc.ClaimWinnings(ctx, rawWallet)
	require.NoError(t, err)
	assert.True(t, claim.HasResolved)
	assert.Equal(t, OutcomeWin, claim.Result)
	assert.True(t, dec("20").Equal(claim.LBRDelta), "got %s", claim.LBRDelta)
	assert.True(t, claim.FTNDelta.IsZero())
	assert.NotEmpty(t, claim.TxHash)
	assert.True(t, dec("1.101").Equal(claim.Balances.LBR), "got %s", claim.Balances.LBR)

	hash, err := f.svc.Withdraw(ctx, wallet)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestResetPendingBet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	_, err := f.svc.PlaceBet(ctx, wallet, redBet("1"))
	require.NoError(t, err)

	claim, err := f.svc.ResetPendingBet(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, claim.HasResolved)

	assert.False(t, f.svc.Polling(wallet))
	_, ok := f.state.GetPending(wallet)
	assert.False(t, ok)
	_, ok = f.svc.LastResult(wallet)
	assert.False(t, ok)

	info, err := f.svc.PendingBet(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, info.IsPending)
}

func TestResumePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, nil)

	_, err := f.sim.PlaceBet(ctx, wallet, true, dec("0.001"), bahamut.FTN)
	require.NoError(t, err)

	pending, err := f.svc.ResumePending(ctx, wallet)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.True(t, f.svc.Polling(wallet))

	f.clock.Advance(15 * time.Second)

	pending, err = f.svc.ResumePending(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.False(t, f.svc.Polling(wallet))
}

func TestPendingBetInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	_, err := f.svc.PlaceBet(ctx, wallet, Bet{Amount: dec("10"), Token: bahamut.LBR, Color: bahamut.Black})
	require.NoError(t, err)

	info, err := f.svc.PendingBet(ctx, wallet)
	require.NoError(t, err)
	assert.True(t, info.IsPending)
	assert.False(t, info.IsInconsistentState)
	assert.True(t, dec("10").Equal(info.PendingLBR))
	require.NotNil(t, info.BetOnRed)
	assert.False(t, *info.BetOnRed)

	otherRaw := "0x00000000000000000000000000000000000000bb"
	_, err = f.sim.PlaceBet(ctx, common.HexToAddress(otherRaw).Hex(), true, dec("0.001"), bahamut.FTN)
	require.NoError(t, err)

	info, err = f.svc.PendingBet(ctx, otherRaw)
	require.NoError(t, err)
	assert.True(t, info.IsPending)
	assert.True(t, info.IsInconsistentState)
}

func TestPollerResolves(t *testing.T) {
	sim := mock.NewSimulator(mock.WithSpinner(func() int { return 1 }), mock.WithResolveAfter(0))
	svc := NewService(sim, state.NewBetState(nil), Config{PollInterval: 10 * time.Millisecond})
	defer func() {
		var wg sync.WaitGroup
		wg.Add(1)
		svc.Stop()
		svc.Wait(&wg)
		wg.Wait()
	}()

	_, err := svc.PlaceBet(context.Background(), wallet, redBet("1"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		res, ok := svc.LastResult(wallet)
		return ok && res.Outcome == OutcomeWin
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return !svc.Polling(wallet) }, 2*time.Second, 10*time.Millisecond)
}

func TestStartResumesPersistedBets(t *testing.T) {
	f := newFixture(t, 1, nil)

	require.NoError(t, f.state.AddPending(context.Background(), state.PendingBet{
		Wallet: wallet,
		Amount: dec("1"),
		Token:  bahamut.FTN,
		Color:  bahamut.Red,
	}))

	f.svc.Start()
	assert.True(t, f.svc.Polling(wallet))
}

func TestHistoryLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, nil)

	for i := 0; i < 4; i++ {
		_, err := f.svc.PlaceBet(ctx, wallet, redBet("0.1"))
		require.NoError(t, err)
		f.clock.Advance(15 * time.Second)
		_, err = f.svc.CheckResult(ctx, wallet)
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, wallet, 0)
	require.NoError(t, err)
	assert.Len(t, history, 8)

	history, err = f.svc.History(ctx, wallet, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, bahamut.KindLoss, history[0].Type)
	assert.False(t, history[0].Timestamp.Before(history[2].Timestamp))
}

type fakeLinker struct{}

func (fakeLinker) TxURL(hash string) string { return "https://ftnscan.com/tx/" + hash }

func (fakeLinker) TxStatus(context.Context, string) (bahamut.TxStatus, error) {
	return bahamut.TxConfirmed, nil
}

func TestTxStatus(t *testing.T) {
	f := newFixture(t, 1, nil)

	info, err := f.svc.TxStatus(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, bahamut.TxPending, info.Status)

	svc := NewService(f.sim, state.NewBetState(nil), Config{}, WithTxLinker(fakeLinker{}))
	info, err = svc.TxStatus(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, bahamut.TxConfirmed, info.Status)
	assert.Equal(t, "https://ftnscan.com/tx/0xabc", info.ExplorerURL)
}

func TestWithdrawalsUnavailable(t *testing.T) {
	ctx := context.Background()
	c := &flaky{hideEvents: true}
	f := newFixture(t, 1, func(sim *mock.Simulator) Contract {
		c.Simulator = sim
		return c
	})

	_, err := f.svc.PlaceBet(ctx, wallet, redBet("5"))
	require.NoError(t, err)
	f.clock.Advance(15 * time.Second)

	c.withdrawalErrs = 1
	res, err := f.svc.CheckResult(ctx, wallet)
	assert.ErrorIs(t, err, errRPC)
	assert.Nil(t, res)

	_, ok := f.state.GetPending(wallet)
	assert.True(t, ok)
	assert.Equal(t, []string{notif.TypeBet}, f.rec.notifTypes())

	res, err = f.svc.CheckResult(ctx, wallet)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, OutcomeWin, res.Outcome)
	assert.Equal(t, []string{notif.TypeBet, notif.TypeResult, notif.TypeWithdraw}, f.rec.notifTypes())
}

func TestAutoWithdrawRetry(t *testing.T) {
	testCases := []struct {
		name       string
		hideEvents bool
	}{
		{"TestFromEvent", false},
		{"TestInferred", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c := &flaky{hideEvents: tc.hideEvents}
			f := newFixture(t, 1, func(sim *mock.Simulator) Contract {
				c.Simulator = sim
				return c
			})

			_, err := f.svc.PlaceBet(ctx, wallet, redBet("5"))
			require.NoError(t, err)
			f.clock.Advance(15 * time.Second)

			c.withdrawErrs = 1
			res, err := f.svc.CheckResult(ctx, wallet)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, OutcomeWin, res.Outcome)

			wd, err := f.svc.PendingWithdrawals(ctx, wallet)
			require.NoError(t, err)
			assert.True(t, wd.HasPendingWithdrawal)

			res, err = f.svc.CheckResult(ctx, wallet)
			require.NoError(t, err)
			assert.Nil(t, res)

			wd, err = f.svc.PendingWithdrawals(ctx, wallet)
			require.NoError(t, err)
			assert.False(t, wd.HasPendingWithdrawal)

			res, err = f.svc.CheckResult(ctx, wallet)
			require.NoError(t, err)
			assert.Nil(t, res)

			assert.Equal(t, []string{notif.TypeBet, notif.TypeResult, notif.TypeWithdraw}, f.rec.notifTypes())
			assert.Equal(t, []string{events.BetPlaced, events.BetResolved, events.FundsWithdrawn}, f.rec.eventTypes())

			history, err := f.svc.History(ctx, wallet, 0)
			require.NoError(t, err)
			require.Len(t, history, 3)
			assert.Equal(t, bahamut.KindWithdraw, history[0].Type)
			assert.Equal(t, bahamut.KindWin, history[1].Type)
		})
	}
}

func TestPollTimeout(t *testing.T) {
	f := newFixtureConfig(t, Config{PollInterval: 10 * time.Millisecond, PollTimeout: 50 * time.Millisecond}, 1, nil)

	_, err := f.svc.PlaceBet(context.Background(), wallet, redBet("1"))
	require.NoError(t, err)
	assert.True(t, f.svc.Polling(wallet))

	assert.Eventually(t, func() bool { return !f.svc.Polling(wallet) }, 2*time.Second, 10*time.Millisecond)

	_, ok := f.state.GetPending(wallet)
	assert.True(t, ok)
}

func TestReplacedPoller(t *testing.T) {
	f := newFixture(t, 1, nil)

	_, err := f.svc.PlaceBet(context.Background(), wallet, redBet("1"))
	require.NoError(t, err)

	f.svc.mu.Lock()
	first := f.svc.pollers[wallet].gen
	f.svc.mu.Unlock()

	f.svc.startPoller(wallet)
	f.svc.stopPoller(wallet, first)
	assert.True(t, f.svc.Polling(wallet))

	f.svc.stopPoller(wallet, 0)
	assert.False(t, f.svc.Polling(wallet))
}

// slowWithdraw holds Withdraw until release is closed and fails it when
// ctx ended meanwhile.
type slowWithdraw struct {
	*mock.Simulator
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *slowWithdraw) Withdraw(ctx context.Context, player string) (string, error) {
	c.once.Do(func() { close(c.entered) })
	<-c.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.Simulator.Withdraw(ctx, player)
}

func TestReplacedPollerFinishesWithdraw(t *testing.T) {
	c := &slowWithdraw{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixtureConfig(t, Config{PollInterval: 10 * time.Millisecond}, 1, func(sim *mock.Simulator) Contract {
		c.Simulator = sim
		return c
	}, mock.WithResolveAfter(0))

	_, err := f.svc.PlaceBet(context.Background(), wallet, redBet("1"))
	require.NoError(t, err)

	select {
	case <-c.entered:
	case <-time.After(2 * time.Second):
		close(c.release)
		t.Fatal("poller never withdrew")
	}

	f.svc.startPoller(wallet)
	close(c.release)

	assert.Eventually(t, func() bool {
		history, err := f.state.History(context.Background(), wallet)
		return err == nil && len(history) > 0 && history[0].Type == bahamut.KindWithdraw
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !f.svc.Polling(wallet) }, 2*time.Second, 10*time.Millisecond)
}
