package models

import "time"

// SystemMetrics is a lightweight snapshot of console instrumentation.
type SystemMetrics struct {
	RequestsTotal             uint64    `json:"requestsTotal"`
	AverageRequestDurationMs  float64   `json:"averageRequestDurationMs"`
	UpstreamRequestsTotal     uint64    `json:"upstreamRequestsTotal"`
	UpstreamFailuresTotal     uint64    `json:"upstreamFailuresTotal"`
	AverageUpstreamDurationMs float64   `json:"averageUpstreamDurationMs"`
	CacheHitRatio             float64   `json:"cacheHitRatio"`
	CacheHits                 uint64    `json:"cacheHits"`
	CacheMisses               uint64    `json:"cacheMisses"`
	MountedScreens            int64     `json:"mountedScreens"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generatedAt"`
}
