package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rates/EUR", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"currency_code": "EUR", "rate": 1.0842}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	rate, err := client.GetRate(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "1.0842", rate.String())
}

func TestGetRate_BusinessFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "message": "currency XZZ is not supported"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetRate(context.Background(), "XZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency XZZ is not supported")
}

func TestGetRate_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetRate(context.Background(), "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 502")
}

func TestGetRate_Unconfigured(t *testing.T) {
	var client *Client
	_, err := client.GetRate(context.Background(), "EUR")
	require.Error(t, err)

	client = NewClient("")
	_, err = client.GetRate(context.Background(), "EUR")
	require.Error(t, err)
}
