package redis

import (
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewEmbedded starts an in-process redis server and connects to it. It
// stands in when REDIS_ADDRESS is empty or unreachable; keys live only as
// long as the process.
func NewEmbedded() (*Client, error) {
	srv, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start embedded redis: %w", err)
	}
	log.Info().Str("address", srv.Addr()).Msg("started embedded redis")
	raw := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return &Client{store: raw, raw: raw, embedded: srv}, nil
}

// NewTestClient connects to a miniredis instance that is torn down with
// the test.
func NewTestClient(t miniredis.Tester) *Client {
	srv := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return &Client{store: raw, raw: raw}
}
