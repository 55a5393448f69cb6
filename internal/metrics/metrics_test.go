package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the value of the metric with the given name and labels, or
// -1 when absent.
func value(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := r.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return -1
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs, "vectors are not exported until observed")
}

func TestRegistry_ObserveSymbol(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveSymbol(core.KindBars, true, 64, 120*time.Millisecond)
	reg.ObserveSymbol(core.KindBars, true, 64, 80*time.Millisecond)
	reg.ObserveSymbol(core.KindBars, false, 0, time.Second)
	reg.ObserveSymbol(core.KindOrders, true, 0, 10*time.Millisecond)

	assert.Equal(t, 2.0, value(t, reg, "klineprompt_symbols_total", map[string]string{"dataset": "klines", "status": "success"}))
	assert.Equal(t, 1.0, value(t, reg, "klineprompt_symbols_total", map[string]string{"dataset": "klines", "status": "failure"}))
	assert.Equal(t, 128.0, value(t, reg, "klineprompt_rows_persisted_total", map[string]string{"dataset": "klines"}))
	assert.Equal(t, 3.0, value(t, reg, "klineprompt_fetch_duration_seconds", map[string]string{"dataset": "klines"}))
	assert.Equal(t, -1.0, value(t, reg, "klineprompt_rows_persisted_total", map[string]string{"dataset": "orders"}))
}

func TestRegistry_ObserveBatch(t *testing.T) {
	reg := NewRegistry()
	reg.now = func() time.Time { return time.Unix(1709625600, 0) }

	reg.ObserveBatch(core.KindOrders, 8, 2)

	assert.Equal(t, 1709625600.0, value(t, reg, "klineprompt_batch_last_run_timestamp_seconds", map[string]string{"dataset": "orders"}))
	assert.Equal(t, 2.0, value(t, reg, "klineprompt_batch_last_run_failed_symbols", map[string]string{"dataset": "orders"}))
}

func TestRegistry_RecordTokensAndArchive(t *testing.T) {
	reg := NewRegistry()

	reg.RecordTokens("claude", 1200, 300)
	reg.RecordTokens("claude", 100, 0)
	reg.RecordArchive(true)
	reg.RecordArchive(false)

	assert.Equal(t, 1300.0, value(t, reg, "klineprompt_llm_tokens_total", map[string]string{"provider": "claude", "direction": "input"}))
	assert.Equal(t, 300.0, value(t, reg, "klineprompt_llm_tokens_total", map[string]string{"provider": "claude", "direction": "output"}))
	assert.Equal(t, 1.0, value(t, reg, "klineprompt_archive_copies_total", map[string]string{"status": "failure"}))
}

func TestRegistry_FlushTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveSymbol(core.KindBars, true, 64, time.Second)

	path := filepath.Join(t.TempDir(), "klineprompt.prom")
	require.NoError(t, reg.Flush(context.Background(), FlushOptions{Textfile: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `klineprompt_symbols_total{dataset="klines",status="success"} 1`)
}

func TestRegistry_FlushPushgateway(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := NewRegistry()
	reg.ObserveSymbol(core.KindOrders, true, 3, time.Second)

	err := reg.Flush(context.Background(), FlushOptions{Pushgateway: srv.URL, Job: "nightly", RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/nightly/run_id/run-1", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestRegistry_FlushErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := NewRegistry()
	err := reg.Flush(context.Background(), FlushOptions{
		Textfile:    filepath.Join(t.TempDir(), "missing", "dir", "x.prom"),
		Pushgateway: srv.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing textfile")
	assert.Contains(t, err.Error(), "pushing metrics")
}

func TestRegistry_FlushNothing(t *testing.T) {
	assert.NoError(t, NewRegistry().Flush(context.Background(), FlushOptions{}))
}
