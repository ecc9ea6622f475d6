package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesVisited tracks pages fetched successfully, labeled by page kind.
	pagesVisited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookcrawler_pages_visited_total",
		Help: "The total number of pages fetched successfully, labeled by page kind.",
	}, []string{"kind"})
	// fetchErrors tracks failed fetches, labeled by page kind.
	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookcrawler_fetch_errors_total",
		Help: "The total number of failed page fetches, labeled by page kind.",
	}, []string{"kind"})
	// itemsIngested tracks items extracted, normalized, and persisted end to end.
	itemsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookcrawler_items_ingested_total",
		Help: "The total number of items persisted end to end.",
	})
	// itemsFailed tracks items dropped by parse or persistence failures.
	itemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookcrawler_items_failed_total",
		Help: "The total number of items dropped by parse or persistence failures.",
	})
)
