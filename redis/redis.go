package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

// Init connects the shared client. The queue board cache degrades to direct
// DB reads when redis is unreachable, so a failed ping is not fatal.
func Init(addr string) {
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	if _, err := Client.Ping(Ctx).Result(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, queue board cache disabled")
		Client = nil
		return
	}
	log.Info().Msg("connected to redis")
}
