package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-pluto/entropy/sched"
	"github.com/go-pluto/entropy/store"
)

// Structs

// EntropyMetrics bundles the instruments of all
// parts of one entropy replica process.
type EntropyMetrics struct {
	Store *store.Metrics
	Sched *sched.Metrics
}

// Functions

// NewEntropyMetrics creates prometheus-backed metrics
// when a prometheus address is configured and discarding
// ones otherwise.
func NewEntropyMetrics(prometheusAddr string) *EntropyMetrics {

	m := &EntropyMetrics{}

	if prometheusAddr == "" {
		m.Store = store.NopMetrics()
		m.Sched = sched.NopMetrics()
		return m
	}

	m.Store = &store.Metrics{
		Updates: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "store",
			Name:      "updates_total",
			Help:      "Number of record upserts",
		}, nil),
		Deletes: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "store",
			Name:      "deletes_total",
			Help:      "Number of record deletions",
		}, nil),
		Compares: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "store",
			Name:      "compares_total",
			Help:      "Number of tree comparisons run",
		}, nil),
		CompareVisits: kitprometheus.NewHistogramFrom(prom.HistogramOpts{
			Namespace: "entropy",
			Subsystem: "store",
			Name:      "compare_visited_nodes",
			Help:      "Node pairs visited per tree comparison",
			Buckets:   prom.ExponentialBuckets(1, 4, 10),
		}, nil),
		InconsistentKeys: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "store",
			Name:      "inconsistent_keys_total",
			Help:      "Keys reported as possibly divergent",
		}, nil),
	}

	m.Sched = &sched.Metrics{
		Rounds: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "sched",
			Name:      "rounds_total",
			Help:      "Anti-entropy rounds run",
		}, nil),
		RootMatches: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "sched",
			Name:      "root_matches_total",
			Help:      "Peer checks settled by equal root digests",
		}, nil),
		TreesFetched: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "sched",
			Name:      "trees_fetched_total",
			Help:      "Peer tree snapshots fetched for comparison",
		}, nil),
		KeysRepaired: kitprometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "entropy",
			Subsystem: "sched",
			Name:      "keys_repaired_total",
			Help:      "Keys handed to the repair engine",
		}, nil),
	}

	return m
}

// runPromHTTP exposes collected metrics at the
// configured address.
func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
