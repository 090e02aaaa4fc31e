package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

// klineRow formats one candle the way the exchange does, newest first is
// the caller's concern.
func klineRow(ts time.Time, close float64) []string {
	return []string{
		strconv.FormatInt(ts.UnixMilli(), 10),
		fmt.Sprintf("%f", close-1),
		fmt.Sprintf("%f", close+2),
		fmt.Sprintf("%f", close-2),
		fmt.Sprintf("%f", close),
		"100",
		"0",
	}
}

func TestFetchReturnsChronologicalClosedBars(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var gotStart string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start")
		var resp klineResponse
		// Newest first, including the still-forming candle at base+3h.
		resp.Result.List = [][]string{
			klineRow(base.Add(3*time.Hour), 103),
			klineRow(base.Add(2*time.Hour), 102),
			klineRow(base.Add(time.Hour), 101),
			klineRow(base, 100),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	adapter := NewBybitAdapter(srv.URL, "")
	adapter.now = func() time.Time { return base.Add(3*time.Hour + 30*time.Minute) }

	bars, err := adapter.Fetch(context.Background(), "BTCUSDT", "60", time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.True(t, bars[0].Time.Equal(base))
	assert.True(t, bars[2].Time.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, 102.0, bars[2].Close)
	assert.Equal(t, "0", gotStart)
}

func TestFetchPassesSinceAsStart(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
		require.NoError(t, err)
		assert.Equal(t, base.Add(5*time.Hour).UnixMilli()+1, start)
		json.NewEncoder(w).Encode(klineResponse{})
	}))
	defer srv.Close()

	adapter := NewBybitAdapter(srv.URL, "")
	bars, err := adapter.Fetch(context.Background(), "BTCUSDT", "60", base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchRejectsUnknownInterval(t *testing.T) {
	adapter := NewBybitAdapter("http://unused", "")
	_, err := adapter.Fetch(context.Background(), "BTCUSDT", "7m", time.Time{})
	assert.Error(t, err)
}

func TestFetchSurfacesExchangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(klineResponse{RetCode: 10001, RetMsg: "params error"})
	}))
	defer srv.Close()

	adapter := NewBybitAdapter(srv.URL, "")
	_, err := adapter.Fetch(context.Background(), "BTCUSDT", "60", time.Time{})
	assert.ErrorContains(t, err, "params error")
}
