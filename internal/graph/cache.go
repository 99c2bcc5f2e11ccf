package graph

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
)

// AnalysisCache memoizes Analyze results keyed by snapshot hash. The hash
// covers task statuses, so any snapshot change produces a new key and a
// fresh analysis; ready-set queries are never cached.
type AnalysisCache struct {
	entries *lru.Cache[string, *Analysis]
}

// NewAnalysisCache creates a cache holding up to size analyses.
func NewAnalysisCache(size int) (*AnalysisCache, error) {
	entries, err := lru.New[string, *Analysis](size)
	if err != nil {
		return nil, err
	}
	return &AnalysisCache{entries: entries}, nil
}

// Analyze returns the cached analysis for the graph's snapshot, computing
// and storing it on a miss.
func (c *AnalysisCache) Analyze(g *Graph) *Analysis {
	key := g.Hash()
	if hit, ok := c.entries.Get(key); ok {
		telemetry.GraphAnalysesTotal.WithLabelValues("hit").Inc()
		return hit
	}

	start := time.Now()
	a := g.Analyze()
	telemetry.GraphAnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	telemetry.GraphAnalysesTotal.WithLabelValues("miss").Inc()
	if a.HasCycles {
		telemetry.GraphCyclesDetected.Inc()
	}

	c.entries.Add(key, a)
	return a
}

// Len returns the number of cached analyses.
func (c *AnalysisCache) Len() int { return c.entries.Len() }
