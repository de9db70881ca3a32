package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(fsOperationsTotal.WithLabelValues("move", "ok"))
	RecordOperation("move", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(fsOperationsTotal.WithLabelValues("move", "ok")))
}

func TestRecordBackendCall(t *testing.T) {
	before := testutil.ToFloat64(backendCallsTotal.WithLabelValues("memory", "stat", "error"))
	RecordBackendCall("memory", "stat", time.Millisecond, false)
	assert.Equal(t, before+1, testutil.ToFloat64(backendCallsTotal.WithLabelValues("memory", "stat", "error")))
}

func TestBytesCountersIgnoreNonPositive(t *testing.T) {
	before := testutil.ToFloat64(bytesUploaded)
	AddBytesUploaded(0)
	AddBytesUploaded(-5)
	AddBytesUploaded(10)
	assert.Equal(t, before+10, testutil.ToFloat64(bytesUploaded))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/directory", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "irondrive_http_requests_total")
}
