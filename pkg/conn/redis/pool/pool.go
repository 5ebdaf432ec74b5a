package pool

import (
	"time"

	"github.com/gomodule/redigo/redis"
)

type Config struct {
	// Address is the "host:port" of the Redis server.
	Address string

	// Password is sent with AUTH when non-empty.
	Password string

	// DB is the database number selected on dial.
	DB int
}

// New builds a connection pool for the Redis server described by conf.
//
// Connections idle for a while are verified with PING before reuse.
func New(conf Config) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 3 * time.Minute,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialDatabase(conf.DB),
			}
			if conf.Password != "" {
				opts = append(opts, redis.DialPassword(conf.Password))
			}
			return redis.Dial("tcp", conf.Address, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}
