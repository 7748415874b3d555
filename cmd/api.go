package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nightowlcasino/redblack/config"
	"github.com/nightowlcasino/redblack/controller"
	logger "github.com/nightowlcasino/redblack/logger"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/nightowlcasino/redblack/services/notif"
	"github.com/nightowlcasino/redblack/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// apiSvcCommand serves the roulette game over HTTP and keeps polling the
// contract for the results of every pending bet
func apiSvcCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api-svc",
		Short: "Run a server that places red/black bets, polls for their results and pays out winnings.",
		Run: func(_ *cobra.Command, _ []string) {

			logger.Initialize("redblack-api-svc")
			log = zap.L()
			defer logger.Flush()

			if err := config.SetDefaults(); err != nil {
				log.Error("invalid config", zap.Error(err))
				os.Exit(1)
			}

			gameCfg, err := gameConfig()
			if err != nil {
				log.Error("invalid config", zap.Error(err))
				os.Exit(1)
			}

			ctx := context.Background()
			retryClient := newRetryClient()

			be, err := newBackend(ctx, retryClient)
			if err != nil {
				log.Error("failed to create contract backend", zap.Error(err))
				os.Exit(1)
			}
			defer be.Close()

			rdb := newRedis(ctx)
			if rdb != nil {
				defer rdb.Close()
			}

			nc := newNats()
			if nc != nil {
				defer nc.Close()
			}

			betState := state.NewBetState(rdb)

			// populate BetState from redis DB
			if err := betState.DBSync(ctx); err != nil {
				log.Error("failed to sync redis DB for bet state", zap.Error(err))
				os.Exit(1)
			}

			sink := newEvents()
			defer sink.Close()

			subj := viper.GetString("nats.notif_payouts_subj")
			opts := []game.Option{game.WithEvents(sink)}
			if nc != nil {
				opts = append(opts, game.WithNotifier(notif.NewPublisher(nc, subj)))
			}
			if be.links != nil {
				opts = append(opts, game.WithTxLinker(be.links))
			}

			gameSvc := game.NewService(be.contract, betState, gameCfg, opts...)

			var notifSvc *notif.Service
			if nc != nil {
				notifSvc, err = notif.NewService(nc, rdb, subj, viper.GetDuration("nats.ack_timeout"))
				if err != nil {
					log.Error("failed to create notif service", zap.Error(err))
					os.Exit(1)
				}
			}

			router := controller.NewRouter(controller.Deps{
				Game:      gameSvc,
				Backend:   be.name,
				Network:   chainConfig(),
				Contracts: contracts(),
				Nats:      nc,
				Redis:     rdb,
				NotifSubj: subj,
				RateLimit: viper.GetFloat64("api.rate_limit"),
			})
			server := controller.NewServer(router, viper.GetInt("api.port"))

			server.Start()
			gameSvc.Start()
			if notifSvc != nil {
				if err := notifSvc.Start(); err != nil {
					log.Error("failed to start notif service", zap.Error(err))
					os.Exit(1)
				}
			}
			router.Ready()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			go func() {
				s := <-signals
				log.Info(s.String() + " signal caught, stopping app")
				gameSvc.Stop()
				if notifSvc != nil {
					notifSvc.Stop()
				}
				server.Stop()
			}()

			log.Info("service started...",
				zap.String("backend", be.name),
				zap.Int("port", viper.GetInt("api.port")),
			)

			var wg sync.WaitGroup
			wg.Add(1)
			go gameSvc.Wait(&wg)
			if notifSvc != nil {
				wg.Add(1)
				go notifSvc.Wait(&wg)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				server.Wait()
			}()

			wg.Wait()
		},
	}
}
