package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ScopeFull   = "full"
	ScopeFolder = "folder"
)

var refreshCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "image_cache_refresh_total",
	Help: "How many cache refreshes ran, partitioned by scope and result",
}, []string{"scope", "result"})

var refreshDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "image_cache_refresh_duration_seconds",
	Help: "How long listing the object store took for a refresh",
}, []string{"scope"})

// CacheEntries is the number of cached objects. The folder scope is the total across all folder listings.
var CacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "image_cache_entries",
	Help: "Number of cached objects, partitioned by scope, folder is summed over all folders",
}, []string{"scope"})

var cacheFolders = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "image_cache_folders",
	Help: "Number of folders currently kept refreshed",
})

func ObserveRefresh(scope string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	refreshCount.WithLabelValues(scope, result).Inc()
	refreshDur.WithLabelValues(scope).Observe(elapsed.Seconds())
}

func SetEntries(scope string, count int) {
	CacheEntries.WithLabelValues(scope).Set(float64(count))
}

func SetFolders(count int) {
	cacheFolders.Set(float64(count))
}
