package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("render_pages", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render_pages", ResultWarning)
	pr.IncBuildOutcome(BuildOutcomeWarning)
	pr.IncPageRendered()
	pr.IncPageRendered()
	pr.IncPageSkipped("template_not_found")
	pr.AddAssetsCopied(3, 1024)
	pr.IncIssue("unresolved_placeholder")

	require.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("render_pages", "warning")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("warning")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.pagesRendered), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.pagesSkipped.WithLabelValues("template_not_found")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(pr.assetFiles), 0)
	require.InDelta(t, 1024, testutil.ToFloat64(pr.assetBytes), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.issues.WithLabelValues("unresolved_placeholder")), 0)

	require.Equal(t, 1, testutil.CollectAndCount(pr.stageDuration))
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 9)
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.IncPageRendered()
		pr.AddAssetsCopied(1, 1)
		pr.IncBuildOutcome(BuildOutcomeFailed)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncPageRendered()

	path := filepath.Join(t.TempDir(), "lava.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "lava_pages_rendered_total 1")
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `lava_build_outcomes_total{outcome="success"} 1`))
}
