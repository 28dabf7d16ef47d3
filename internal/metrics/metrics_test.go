package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCleanupItem(t *testing.T) {
	before := testutil.ToFloat64(bytesFreed)
	RecordCleanupItem("quarantine", true, 100)
	RecordCleanupItem("quarantine", false, 999)

	assert.Equal(t, before+100, testutil.ToFloat64(bytesFreed))
	assert.GreaterOrEqual(t, testutil.ToFloat64(cleanupItems.WithLabelValues("quarantine", "error")), 1.0)
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordScan(true, 10*time.Millisecond)
	SetQuarantineBytes(2048)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "devsweep_scans_total"))
	assert.True(t, strings.Contains(body, "devsweep_quarantine_bytes 2048"))
}
