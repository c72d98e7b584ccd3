package redisstore

import (
	jobredis "github.com/goliatone/go-job/queue/adapters/redis"
	"github.com/goliatone/go-r25live/core"
)

var (
	_ core.SessionStore = (*SessionStore)(nil)
	_ jobredis.Client   = (*QueueClient)(nil)
)
