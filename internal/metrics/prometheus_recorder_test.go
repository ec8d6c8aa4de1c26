package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.AddPagesRendered(3)
	pr.AddStaticFiles(StaticMirrored, 5)
	pr.AddStaticFiles(StaticOverride, 1)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	assert.InDelta(t, 3, testutil.ToFloat64(pr.pagesRendered), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(pr.staticFiles.WithLabelValues(StaticMirrored)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues(string(OutcomeSuccess))), 0)
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("render", time.Second)
		pr.ObserveBuildDuration(time.Second)
		pr.IncStageResult("render", ResultFatal)
		pr.IncBuildOutcome(OutcomeFailed)
		pr.AddPagesRendered(1)
		pr.AddStaticFiles(StaticMirrored, 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.AddPagesRendered(2)
	pr.IncBuildOutcome(OutcomeFailed)

	out := filepath.Join(t.TempDir(), "simplesite.prom")
	require.NoError(t, WriteTextfile(out, reg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "simplesite_pages_rendered_total 2"), text)
	assert.Contains(t, text, `simplesite_build_outcomes_total{outcome="failed"} 1`)
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg)
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg)
	assert.Error(t, err)
}

func TestNewPrometheusRecorder_RegistersOncePerRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg)
	assert.Panics(t, func() { NewPrometheusRecorder(reg) })
	assert.NotPanics(t, func() { NewPrometheusRecorder(nil) })
}
