package webhook

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kacperjurak/goocclusion/pkg/models"
)

func testFigure() models.Figure {
	return models.Figure{
		ID:   "abc",
		Name: "fig2",
		Curves: []models.Curve{{
			Label:       "Perfectly occluded",
			Frequencies: []float64{100, 200},
			Magnitude:   []float64{math.Inf(-1), 12},
			Lower:       []float64{math.NaN(), 10},
		}},
	}
}

func TestSendSanitizes(t *testing.T) {
	var got models.Figure
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fig := testFigure()
	c := NewClient(srv.URL, zaptest.NewLogger(t))
	require.NoError(t, c.Send(context.Background(), fig))

	assert.Equal(t, "fig2", got.Name)
	assert.NotEmpty(t, got.Time)
	require.Len(t, got.Curves, 1)
	assert.Equal(t, []float64{0, 12}, got.Curves[0].Magnitude)
	assert.Equal(t, []float64{0, 10}, got.Curves[0].Lower)
	assert.Nil(t, got.Curves[0].Upper)

	// The caller's figure is untouched.
	assert.True(t, math.IsInf(fig.Curves[0].Magnitude[0], -1))
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, nil).Send(context.Background(), testFigure())
	assert.ErrorContains(t, err, "502")
}

type recorder struct {
	mu   sync.Mutex
	figs []string
}

func (r *recorder) Send(_ context.Context, fig models.Figure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.figs = append(r.figs, fig.Name)
	return nil
}

func TestQueueDeliversOnClose(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, 4, zaptest.NewLogger(t))
	for _, name := range []string{"fig1", "fig2", "fig3"} {
		assert.True(t, q.Enqueue(models.Figure{Name: name}))
	}
	q.Close()
	q.Close()
	assert.Equal(t, []string{"fig1", "fig2", "fig3"}, rec.figs)
}

type blocking struct{ release chan struct{} }

func (b blocking) Send(context.Context, models.Figure) error {
	<-b.release
	return nil
}

func TestQueueDropsWhenFull(t *testing.T) {
	b := blocking{release: make(chan struct{})}
	q := NewQueue(b, 1, nil)
	defer q.Close()
	defer close(b.release)

	dropped := false
	for i := 0; i < 3; i++ {
		if !q.Enqueue(models.Figure{Name: "fig1"}) {
			dropped = true
		}
	}
	assert.True(t, dropped)
}
