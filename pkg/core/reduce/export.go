package reduce

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
	"github.com/prometheus/client_golang/prometheus"
)

// GraphExporter is implemented by manipulators that can export their graph.
type GraphExporter interface {
	Title() string
	WriteDOT(w io.Writer) error
}

// ExportGraphs writes one DOT file per exporter into dir, named after its
// title and the given suffix, and returns the paths written.
func ExportGraphs(dir, suffix string, exporters ...GraphExporter) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating graph directory: %w", err)
	}
	var paths []string
	for _, e := range exporters {
		name := e.Title()
		if suffix != "" {
			name += " " + suffix
		}
		p := filepath.Join(dir, graph.DOTFileName(name))
		f, err := os.Create(p)
		if err != nil {
			return paths, fmt.Errorf("creating '%s': %w", p, err)
		}
		err = e.WriteDOT(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing '%s': %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// NewMetricsRegistry publishes the statistics of every pass as gauges
// labeled with the run id and the pass name.
func NewMetricsRegistry(runID string, stats []*dd.Stats) (*prometheus.Registry, error) {
	labels := prometheus.Labels{"run": runID}
	rounds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "delta_reduce",
		Name:        "rounds",
		Help:        "Test rounds of a pass by outcome.",
		ConstLabels: labels,
	}, []string{"pass", "outcome"})
	cacheHits := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "delta_reduce",
		Name:        "cache_hits",
		Help:        "Configurations answered from the result cache.",
		ConstLabels: labels,
	}, []string{"pass"})
	rollbackRow := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "delta_reduce",
		Name:        "longest_rollback_row",
		Help:        "Longest row of consecutive rollbacks.",
		ConstLabels: labels,
	}, []string{"pass"})
	elements := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "delta_reduce",
		Name:        "elements",
		Help:        "Elements of a pass by classification.",
		ConstLabels: labels,
	}, []string{"pass", "class"})
	seconds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "delta_reduce",
		Name:        "phase_seconds",
		Help:        "Time spent inside the engine by phase.",
		ConstLabels: labels,
	}, []string{"pass", "phase"})

	registry := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{rounds, cacheHits, rollbackRow, elements, seconds} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	for _, st := range stats {
		pass := st.Name()
		rounds.WithLabelValues(pass, "fail").Set(float64(st.FailRounds))
		rounds.WithLabelValues(pass, "pass").Set(float64(st.PassRounds))
		rounds.WithLabelValues(pass, "unresolved").Set(float64(st.UnresolvedRounds))
		cacheHits.WithLabelValues(pass).Set(float64(st.CacheHits))
		rollbackRow.WithLabelValues(pass).Set(float64(st.LongestRollbackRow))
		elements.WithLabelValues(pass, "found").Set(float64(st.Found))
		elements.WithLabelValues(pass, "cause").Set(float64(st.Cause))
		elements.WithLabelValues(pass, "safe").Set(float64(st.Safe))
		elements.WithLabelValues(pass, "removed").Set(float64(st.Removed))
		elements.WithLabelValues(pass, "unresolved").Set(float64(st.Unresolved))
		seconds.WithLabelValues(pass, "premath").Set(st.Premath.Seconds())
		seconds.WithLabelValues(pass, "mutation").Set(st.Mutation.Seconds())
		seconds.WithLabelValues(pass, "aftermath").Set(st.Aftermath.Seconds())
	}
	return registry, nil
}

// WriteMetrics writes the statistics in the Prometheus text format to path.
func WriteMetrics(path, runID string, stats []*dd.Stats) error {
	registry, err := NewMetricsRegistry(runID, stats)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics to '%s': %w", path, err)
	}
	return nil
}
