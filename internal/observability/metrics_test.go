package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordOperationIncrementsCounterAndHistogram(t *testing.T) {
	before := testutil.ToFloat64(operationCounter.WithLabelValues("add_member", "ok"))
	beforeSamples := histogramSampleCount(t, "add_member")

	RecordOperation("add_member", "ok", 5*time.Millisecond)

	require.Equal(t, before+1, testutil.ToFloat64(operationCounter.WithLabelValues("add_member", "ok")))
	require.Equal(t, before+1, OperationCount("add_member", "ok"))
	require.Equal(t, beforeSamples+1, histogramSampleCount(t, "add_member"))
}

func TestRecordBatchRun(t *testing.T) {
	before := BatchRunCount("committed")
	RecordBatchRun("committed")
	require.Equal(t, before+1, BatchRunCount("committed"))
}

func histogramSampleCount(t *testing.T, operation string) uint64 {
	t.Helper()
	observer, err := operationDuration.GetMetricWithLabelValues(operation)
	require.NoError(t, err)
	metric := &dto.Metric{}
	require.NoError(t, observer.(interface{ Write(*dto.Metric) error }).Write(metric))
	return metric.GetHistogram().GetSampleCount()
}
