package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/config"
	logger "github.com/nightowlcasino/redblack/logger"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/nightowlcasino/redblack/state"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// session is one CLI invocation's game service.
type session struct {
	game   *game.Service
	wallet string
	close  func()
}

func newSession(ctx context.Context, walletFlag string) (*session, error) {
	logger.Initialize("redblack-cli")
	log = zap.L()

	if err := config.SetDefaults(); err != nil {
		return nil, err
	}
	if !viper.IsSet("logging.level") {
		logger.SetLevel("warn")
	}

	gameCfg, err := gameConfig()
	if err != nil {
		return nil, err
	}

	be, err := newBackend(ctx, newRetryClient())
	if err != nil {
		return nil, err
	}

	wallet := walletFlag
	if wallet == "" {
		wallet = viper.GetString("wallet.address")
	}
	if wallet == "" {
		wallet = be.signer
	}
	if wallet == "" {
		be.Close()
		return nil, config.ErrMissingWalletAddr
	}

	rdb := newRedis(ctx)
	betState := state.NewBetState(rdb)
	if err := betState.DBSync(ctx); err != nil {
		log.Warn("failed to sync redis DB for bet state", zap.Error(err))
	}

	sink := newEvents()
	opts := []game.Option{game.WithEvents(sink)}
	if be.links != nil {
		opts = append(opts, game.WithTxLinker(be.links))
	}
	svc := game.NewService(be.contract, betState, gameCfg, opts...)

	return &session{
		game:   svc,
		wallet: wallet,
		close: func() {
			var wg sync.WaitGroup
			wg.Add(1)
			svc.Stop()
			svc.Wait(&wg)
			wg.Wait()

			sink.Close()
			if rdb != nil {
				rdb.Close()
			}
			be.Close()
			logger.Flush()
		},
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func betCommand() *cobra.Command {
	var (
		wallet string
		amount string
		token  string
		color  string
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "bet",
		Short: "Place a red or black bet, optionally waiting for the wheel to stop.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w - got '%s'", game.ErrInvalidAmount, amount)
			}
			tok, err := bahamut.ParseToken(token)
			if err != nil {
				return err
			}
			bet := game.Bet{Amount: amt, Token: tok, Color: bahamut.Color(color)}
			if err := bet.Validate(); err != nil {
				return err
			}

			s, err := newSession(ctx, wallet)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.game.PlaceBet(ctx, s.wallet, bet)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !wait {
				return nil
			}

			final, err := waitForResult(ctx, s)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), final)
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (default is wallet.address or the signer)")
	cmd.Flags().StringVar(&amount, "amount", "1", "bet amount: 0.1, 0.5, 1, 5, 10 or 25")
	cmd.Flags().StringVar(&token, "token", string(bahamut.FTN), "token to bet with: FTN or LBR")
	cmd.Flags().StringVar(&color, "color", string(bahamut.Red), "color to bet on: red or black")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the result and pay out any winnings")

	return cmd
}

// waitForResult checks on the pending bet every poll interval. The
// background poller may resolve it first, in which case its result is used.
func waitForResult(ctx context.Context, s *session) (game.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("roulette.poll_timeout"))
	defer cancel()

	ticker := time.NewTicker(viper.GetDuration("roulette.poll_interval"))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return game.Result{}, fmt.Errorf("gave up waiting for the bet result - %w", ctx.Err())
		case <-ticker.C:
			res, err := s.game.CheckResult(ctx, s.wallet)
			if err != nil {
				log.Warn("failed to check bet result", zap.Error(err), zap.String("wallet_addr", s.wallet))
				continue
			}
			if res != nil {
				return *res, nil
			}
			if last, ok := s.game.LastResult(s.wallet); ok && last.Outcome != game.OutcomePending {
				return last, nil
			}
		}
	}
}

func withdrawCommand() *cobra.Command {
	var wallet string

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw all winnings waiting in the roulette contract.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			s, err := newSession(ctx, wallet)
			if err != nil {
				return err
			}
			defer s.close()

			wd, err := s.game.PendingWithdrawals(ctx, s.wallet)
			if err != nil {
				return err
			}
			hash, err := s.game.Withdraw(ctx, s.wallet)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"withdrawn": hash != "",
				"txHash":    hash,
				"ftnAmount": wd.FTN,
				"lbrAmount": wd.LBR,
			})
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (default is wallet.address or the signer)")

	return cmd
}

func statusCommand() *cobra.Command {
	var wallet string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show balances, the pending bet and waiting winnings.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			s, err := newSession(ctx, wallet)
			if err != nil {
				return err
			}
			defer s.close()

			balances, err := s.game.Balances(ctx, s.wallet)
			if err != nil {
				return err
			}
			pending, err := s.game.PendingBet(ctx, s.wallet)
			if err != nil {
				return err
			}
			withdrawals, err := s.game.PendingWithdrawals(ctx, s.wallet)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"wallet":      s.wallet,
				"balances":    balances,
				"pendingBet":  pending,
				"withdrawals": withdrawals,
			})
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (default is wallet.address or the signer)")

	return cmd
}

func historyCommand() *cobra.Command {
	var (
		wallet string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent bets, results and withdrawals, newest first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			s, err := newSession(ctx, wallet)
			if err != nil {
				return err
			}
			defer s.close()

			history, err := s.game.History(ctx, s.wallet, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), history)
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (default is wallet.address or the signer)")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries (default is roulette.history_limit)")

	return cmd
}
