package model

import "time"

// Grant is a single-use, time-limited admission credential to the channel.
type Grant struct {
	Ref        string
	ExpiresAt  time.Time
	UsageLimit int
}
