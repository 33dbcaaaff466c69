package coops

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

var sf = domain.Location{Name: "ocean-beach", TideStation: "9414290", Timezone: "UTC"}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchTides_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "9414290", q.Get("station"))
		assert.Equal(t, "20240601", q.Get("begin_date"))
		assert.Equal(t, "20240601", q.Get("end_date"))
		assert.Equal(t, "predictions", q.Get("product"))
		assert.Equal(t, "hilo", q.Get("interval"))
		assert.Equal(t, "MLLW", q.Get("datum"))
		assert.Equal(t, "english", q.Get("units"))

		_, _ = io.WriteString(w, `{"predictions":[
			{"t":"2024-06-01 05:42","v":"0.812","type":"L"},
			{"t":"2024-06-01 11:58","v":"4.9","type":"H"},
			{"t":"garbage","v":"1.0","type":"H"},
			{"t":"2024-06-01 18:10","v":"-0.3","type":"LL"}
		]}`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).FetchTides(context.Background(), sf, "2024-06-01")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, domain.TideEvent{Time: time.Date(2024, 6, 1, 5, 42, 0, 0, time.UTC), Type: domain.TideLow, Height: 0.812}, got[0])
	assert.Equal(t, domain.TideHigh, got[1].Type)
	assert.InDelta(t, 4.9, got[1].Height, 1e-9)
	assert.Equal(t, domain.TideLow, got[2].Type)
	assert.InDelta(t, -0.3, got[2].Height, 1e-9)
}

func TestFetchTides_APIErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"message":"No Predictions data was found."}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTides(context.Background(), sf, "2024-06-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No Predictions data")
}

func TestFetchTides_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTides(context.Background(), sf, "2024-06-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchTides_BadInput(t *testing.T) {
	c := testClient("http://unused")

	_, err := c.FetchTides(context.Background(), domain.Location{Name: "x"}, "2024-06-01")
	require.Error(t, err)

	_, err = c.FetchTides(context.Background(), sf, "June 1")
	require.Error(t, err)
}
