package beacon

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/adexit/internal/metrics"
)

type hit struct {
	method      string
	path        string
	contentType string
	accept      string
	body        string
}

func newRecordingServer(t *testing.T) (*httptest.Server, func() []hit) {
	t.Helper()

	var (
		mu   sync.Mutex
		hits []hit
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		hits = append(hits, hit{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			accept:      r.Header.Get("Accept"),
			body:        string(body),
		})
		mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []hit {
		mu.Lock()
		defer mu.Unlock()

		return append([]hit(nil), hits...)
	}
}

func TestDispatch_Beacon(t *testing.T) {
	srv, hits := newRecordingServer(t)
	m := metrics.New(nil)

	d, err := New(2, WithHTTPClient(srv.Client()), WithMetrics(m))
	require.NoError(t, err)

	d.Dispatch(srv.URL + "/a")

	require.Eventually(t, func() bool { return len(hits()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, d.Close(time.Second))

	got := hits()[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/a", got.path)
	assert.Equal(t, "text/plain;charset=UTF-8", got.contentType)
	assert.Empty(t, got.body)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Pings().WithLabelValues(TransportBeacon, metrics.PingSent)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatch_ImageFallback(t *testing.T) {
	srv, hits := newRecordingServer(t)

	d, err := New(2, WithHTTPClient(srv.Client()), WithBeaconSupport(false))
	require.NoError(t, err)

	d.Dispatch(srv.URL + "/pixel.gif")

	require.Eventually(t, func() bool { return len(hits()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, d.Close(time.Second))

	got := hits()[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/pixel.gif", got.path)
	assert.Equal(t, "image/*", got.accept)
}

func TestDispatch_FailureIsCounted(t *testing.T) {
	m := metrics.New(nil)

	d, err := New(1, WithMetrics(m), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	d.Dispatch("http://127.0.0.1:1/unreachable")

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Pings().WithLabelValues(TransportBeacon, metrics.PingFailed)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, d.Close(time.Second))
}

func TestDispatch_DropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	m := metrics.New(nil)

	d, err := New(1, WithHTTPClient(srv.Client()), WithMetrics(m))
	require.NoError(t, err)

	d.Dispatch(srv.URL + "/slow")

	// The single worker is busy, so the next ping cannot be queued.
	require.Eventually(t, func() bool { return d.pool.Running() == 1 }, time.Second, 5*time.Millisecond)
	d.Dispatch(srv.URL + "/dropped")

	assert.InDelta(t, 1, testutil.ToFloat64(m.Pings().WithLabelValues(TransportBeacon, metrics.PingDropped)), 0)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Dispatch("https://t.example/a")
	r.Dispatch("https://t.example/b")

	assert.Equal(t, []string{"https://t.example/a", "https://t.example/b"}, r.URLs)
}
