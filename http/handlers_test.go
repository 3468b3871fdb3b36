package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"loanapproval/loan"
	"loanapproval/metrics"
)

func TestHomeHandler(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.9}, testTemplates())

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("handler returned wrong content type: %q", ct)
	}
	if strings.Contains(rr.Body.String(), "prediction") {
		t.Errorf("home page should not carry a prediction: %s", rr.Body.String())
	}
}

func TestHomeHandlerMissingTemplate(t *testing.T) {
	templates := NewTemplates(fstest.MapFS{}, "home.html")
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.9}, templates)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error rendering home page")
}

func TestUnknownRoutes(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.9}, testTemplates())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func newTestServer(t *testing.T, config ServerConfig) (*Server, *metrics.Metrics) {
	t.Helper()
	log := zaptest.NewLogger(t)
	m := metrics.New(prometheus.NewRegistry())
	service := loan.NewService(&fakeModel{class: 1, p: 0.87}, log, loan.WithMetrics(m))
	return NewServer(config, NewHandler(service, testTemplates(), log), log, m), m
}

func TestServerHandlerChain(t *testing.T) {
	srv, m := newTestServer(t, DefaultServerConfig())
	handler := srv.Handler()

	rr := postJSON(handler, `{"Gender":"Male"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/predict_api", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("success", loan.LabelApproved)))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "loan_predictions_total")
}

func TestServerRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t, DefaultServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
}

func TestServerUnknownPathLabel(t *testing.T) {
	srv, m := newTestServer(t, DefaultServerConfig())

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("other", "GET", "404")))
}

func TestServerMetricsDisabled(t *testing.T) {
	config := DefaultServerConfig()
	config.MetricsPath = ""
	srv, _ := newTestServer(t, config)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServerAddr(t *testing.T) {
	config := DefaultServerConfig()
	config.Port = 5000
	srv, _ := newTestServer(t, config)
	assert.Equal(t, "0.0.0.0:5000", srv.Addr())
}

func TestServerRequestSizeLimit(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxBodyBytes = 16
	srv, _ := newTestServer(t, config)

	rr := postJSON(srv.Handler(), `{"Gender":"Male","Married":"Yes","Education":"Graduate"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"error"`)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORSMiddleware([]string{"https://loans.example.com"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/predict_api", nil)
	req.Header.Set("Origin", "https://loans.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://loans.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/predict_api", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	CORSMiddleware(nil)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := Chain(RecoveryMiddleware(zaptest.NewLogger(t)))(panicking)

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(mark("a"), mark("b"))(final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
