package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/pkg/tracing"
)

func TestSendFiltersEmptyTokens(t *testing.T) {
	var got []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewExpoClient(Config{URL: srv.URL}, zerolog.Nop())
	err := c.Send(context.Background(), []string{"", "ExponentPushToken[a]", "", "ExponentPushToken[b]"},
		"Transport Alert: Delay", "Running late", map[string]interface{}{"bus_id": 3})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "ExponentPushToken[a]", got[0].To)
	assert.Equal(t, "Transport Alert: Delay", got[0].Title)
	assert.Equal(t, "Running late", got[0].Body)
	assert.Equal(t, "default", got[0].Sound)
	assert.EqualValues(t, 3, got[1].Data["bus_id"])
}

func TestSendNoTokensMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewExpoClient(Config{URL: srv.URL}, zerolog.Nop())
	require.NoError(t, c.Send(context.Background(), nil, "t", "b", nil))
	require.NoError(t, c.Send(context.Background(), []string{"", ""}, "t", "b", nil))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSendReportsRelayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewExpoClient(Config{URL: srv.URL}, zerolog.Nop())
	err := c.Send(context.Background(), []string{"tok"}, "t", "b", nil)
	assert.Error(t, err)
}

func TestSendIsTraced(t *testing.T) {
	var spans bytes.Buffer
	shutdown, err := tracing.Setup(tracing.Config{Enabled: true, ServiceName: "edutransit", Output: &spans, Sync: true})
	require.NoError(t, err)

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewExpoClient(Config{URL: srv.URL}, zerolog.Nop())
	require.NoError(t, c.Send(context.Background(), []string{"ExponentPushToken[a]"}, "Bus", "Arrived", nil))
	require.NoError(t, shutdown(context.Background()))

	assert.Regexp(t, `^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`, traceparent)
	assert.Contains(t, spans.String(), "otelhttp")
}
