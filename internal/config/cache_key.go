package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// MonitorSessionsKey returns the cache key for the active-sessions monitor page
func (r *CacheKeyStruct) MonitorSessionsKey() string {
	return "monitor:sessions"
}

// MonitorHealthKey returns the cache key for the monitor health report
func (r *CacheKeyStruct) MonitorHealthKey() string {
	return "monitor:health"
}

// ClientStateKey returns the cache key for an API client's rotation state
func (r *CacheKeyStruct) ClientStateKey(clientID string) string {
	return fmt.Sprintf("client:%s:rotated_at", clientID)
}

// LiveChannel returns the Redis PubSub channel for live engagement updates
func (r *CacheKeyStruct) LiveChannel() string {
	return "engage:live"
}

var CacheKey = NewCacheKeyStruct()
