package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	// Given: two metric sets in the same process
	first := New()
	second := New()

	// When: only the first one counts a move
	first.MovesAccepted.Inc()

	// Then: the second one is unaffected
	assert.InDelta(t, 1, testutil.ToFloat64(first.MovesAccepted), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(second.MovesAccepted), 0)
}

func TestMetrics_Handler(t *testing.T) {
	// Given: a rejected move and a forwarded frame
	m := New()
	m.MovesRejected.WithLabelValues("occupied").Inc()
	m.ForwardedFrames.WithLabelValues(DirectionUpstream).Add(2)

	// When: scraping the handler
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Then: both series are exposed
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tictactoe_server_moves_rejected_total{reason="occupied"} 1`)
	assert.Contains(t, string(body), `tictactoe_relay_forwarded_frames_total{direction="upstream"} 2`)
}
