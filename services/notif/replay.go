package notif

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Replay republishes every stored notification for wallet to subj so the
// Service tries to deliver it again. It returns how many were sent.
func Replay(ctx context.Context, nc *nats.Conn, rdb *redis.Client, subj, wallet string) (int, error) {
	log := zap.L()

	var count int
	var errs *multierror.Error
	for _, typ := range Types {
		match := fmt.Sprintf("notif:%s:%s:*", typ, wallet)
		iter := rdb.Scan(ctx, 0, match, 0).Iterator()
		for iter.Next(ctx) {
			n, err := rdb.Get(ctx, iter.Val()).Result()
			if err != nil {
				log.Error("failed to get notification from redis db",
					zap.Error(err),
					zap.String("redis_key", iter.Val()),
				)
				errs = multierror.Append(errs, err)
				continue
			}

			if err := nc.Publish(subj, []byte(n)); err != nil {
				log.Error("failed to send notification to nats queue",
					zap.Error(err),
					zap.String("wallet_addr", wallet),
				)
				errs = multierror.Append(errs, err)
				continue
			}
			count++
		}
		if err := iter.Err(); err != nil {
			log.Error("query failed to get notification from redis db",
				zap.Error(err),
				zap.String("redis_key", match),
				zap.String("wallet_addr", wallet),
			)
			errs = multierror.Append(errs, err)
		}
	}

	return count, errs.ErrorOrNil()
}
