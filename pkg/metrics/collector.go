package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AssetsCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hoard_assets_cached",
			Help: "Number of asset records currently held in the store cache",
		},
	)

	NextAssetID = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hoard_next_asset_id",
			Help: "The id the store will assign to the next registered asset",
		},
	)
)

func init() {
	prometheus.MustRegister(AssetsCached)
	prometheus.MustRegister(NextAssetID)
}

// StoreStats is a snapshot of store-level gauges.
type StoreStats struct {
	CachedAssets int
	NextID       int
}

// Collector periodically samples store statistics into gauges
type Collector struct {
	source func() StoreStats
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over a stats source
func NewCollector(source func() StoreStats) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	stats := c.source()
	AssetsCached.Set(float64(stats.CachedAssets))
	NextAssetID.Set(float64(stats.NextID))
}
