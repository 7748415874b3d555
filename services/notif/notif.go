package notif

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TypeBet      = "bet"
	TypeResult   = "result"
	TypeWithdraw = "withdraw"

	// unsent notifications are kept for 2 weeks
	storeTTL = 336 * time.Hour
)

// Types lists every notification type a wallet can have stored.
var Types = []string{TypeBet, TypeResult, TypeWithdraw}

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary
	log  *zap.Logger
)

type Notif struct {
	Type       string `json:"type"             redis:"type"`
	WalletAddr string `json:"address"          redis:"address"`
	Amount     string `json:"amount"           redis:"amount"`
	TokenName  string `json:"tokenName"        redis:"tokenName"`
	TxID       string `json:"txid"             redis:"txid"`
	Result     string `json:"result,omitempty" redis:"result"`
	Color      string `json:"color,omitempty"  redis:"color"`
}

func (n Notif) MarshalBinary() ([]byte, error) {
	return json.Marshal(n)
}

// Key is where an unacknowledged notification is stored. One transaction
// can carry a notification per token. Without a TxID the key is derived
// from the notification's content.
func Key(n Notif) string {
	id := n.TxID
	if id == "" {
		data, _ := n.MarshalBinary()
		id = uuid.NewSHA1(uuid.NameSpaceOID, data).String()
	}
	return fmt.Sprintf("notif:%s:%s:%s:%s", n.Type, n.WalletAddr, id, n.TokenName)
}

// Publisher sends notifications to the payouts subject for the Service to
// deliver.
type Publisher struct {
	nc   *nats.Conn
	subj string
}

func NewPublisher(nc *nats.Conn, subj string) *Publisher {
	return &Publisher{nc: nc, subj: subj}
}

func (p *Publisher) Notify(_ context.Context, n Notif) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification - %w", err)
	}
	if err := p.nc.Publish(p.subj, data); err != nil {
		return fmt.Errorf("failed to publish notification to subject %s - %w", p.subj, err)
	}
	return nil
}

// Nop drops notifications, used when nats is not configured.
type Nop struct{}

func (Nop) Notify(context.Context, Notif) error { return nil }

// Service delivers notifications from the payouts subject to each wallet's
// subject and stores the ones nobody acknowledged.
type Service struct {
	ctx        context.Context
	component  string
	nats       *nats.Conn
	rdb        *redis.Client
	subj       string
	ackTimeout time.Duration
	sub        *nats.Subscription
	stop       chan bool
	done       chan bool
}

func NewService(nc *nats.Conn, rdb *redis.Client, subj string, ackTimeout time.Duration) (service *Service, err error) {
	if nc == nil {
		return nil, errors.New("notif service requires a nats connection")
	}

	log = zap.L()

	service = &Service{
		ctx:        context.Background(),
		component:  "notif",
		nats:       nc,
		rdb:        rdb,
		subj:       subj,
		ackTimeout: ackTimeout,
		stop:       make(chan bool),
		done:       make(chan bool),
	}

	return service, nil
}

func (s *Service) Start() error {
	sub, err := s.nats.Subscribe(s.subj, s.handleNATSMessages)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s - %w", s.subj, err)
	}
	s.sub = sub
	log.Info("successfully subscribed to " + s.subj)

	go func() {
		<-s.stop
		if err := s.sub.Drain(); err != nil {
			log.Error("failed to drain subscription", zap.Error(err), zap.String("subject", s.subj))
		}
		log.Info("stopping notif service...")
		close(s.done)
	}()

	return nil
}

func (s *Service) Stop() {
	s.stop <- true
}

func (s *Service) Wait(wg *sync.WaitGroup) {
	defer wg.Done()
	<-s.done
}

func (s *Service) store(notif Notif) {
	if s.rdb == nil {
		return
	}

	key := Key(notif)
	result, err := s.rdb.Get(s.ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil) || result == "":
		err = s.rdb.Set(s.ctx, key, notif, storeTTL).Err()
		if err != nil {
			log.Error("failed to set key in redis db", zap.Error(err), zap.String("redis_key", key))
		} else {
			log.Debug("notification stored in redis db", zap.String("redis_key", key))
		}
	case err != nil:
		log.Error("failed to get key from redis db", zap.Error(err), zap.String("redis_key", key))
	}
}

func (s *Service) forget(notif Notif) {
	if s.rdb == nil {
		return
	}

	key := Key(notif)
	log.Debug("notification ack received, removing notification from redis db", zap.String("redis_key", key))
	if err := s.rdb.Del(s.ctx, key).Err(); err != nil {
		log.Error("failed to remove notification from redis db", zap.Error(err), zap.String("redis_key", key))
	}
}

// handleNATSMessages is called on receipt of a new NATS message.
func (s *Service) handleNATSMessages(msg *nats.Msg) {
	var notif Notif
	if err := json.Unmarshal(msg.Data, &notif); err != nil {
		log.Error("failed to unmarshal Notif", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("type", notif.Type),
		zap.String("wallet_addr", notif.WalletAddr),
		zap.String("amount", notif.Amount),
		zap.String("token", notif.TokenName),
		zap.String("tx_hash", notif.TxID),
	}

	subj := fmt.Sprintf("notif.%s", notif.WalletAddr)
	_, err := s.nats.Request(subj, msg.Data, s.ackTimeout)
	if err != nil {
		// no ack, keep it until the player reconnects
		log.Debug("notification ack not received", append(fields, zap.Error(err))...)
		s.store(notif)
		return
	}

	log.Debug("sent notification to player", fields...)
	s.forget(notif)
}
