package database

import (
	"context"
	"time"

	"checkout-backend/pkg/logger"
)

// Close is safe to call more than once
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	db.Pool = nil
	logger.Info("database pool closed", nil)
}

// PoolStats is a point-in-time view of the pool
type PoolStats struct {
	AcquiredConns        int32
	IdleConns            int32
	TotalConns           int32
	MaxConns             int32
	AcquireCount         int64
	AcquireDuration      time.Duration
	CanceledAcquireCount int64
}

func (db *PostgresDB) Stats() (PoolStats, bool) {
	if db.Pool == nil {
		return PoolStats{}, false
	}
	s := db.Pool.Stat()
	return PoolStats{
		AcquiredConns:        s.AcquiredConns(),
		IdleConns:            s.IdleConns(),
		TotalConns:           s.TotalConns(),
		MaxConns:             s.MaxConns(),
		AcquireCount:         s.AcquireCount(),
		AcquireDuration:      s.AcquireDuration(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
	}, true
}

// Utilization is the share of the pool currently acquired, 0..1
func (s PoolStats) Utilization() float64 {
	if s.MaxConns == 0 {
		return 0
	}
	return float64(s.AcquiredConns) / float64(s.MaxConns)
}

// MonitorPool reports pool stats to observe every interval until ctx ends
// and warns when the pool is close to exhaustion.
func (db *PostgresDB) MonitorPool(ctx context.Context, interval time.Duration, observe func(PoolStats)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, ok := db.Stats()
			if !ok {
				continue
			}
			if observe != nil {
				observe(stats)
			}
			if u := stats.Utilization(); u > 0.8 {
				logger.Warn("high database pool utilization", map[string]interface{}{
					"acquired": stats.AcquiredConns,
					"max":      stats.MaxConns,
				})
			}
		case <-ctx.Done():
			return
		}
	}
}
