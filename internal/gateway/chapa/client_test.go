package chapa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/pkg/config"
)

func newVerifyServer(t *testing.T, status int, body string) (*httptest.Server, *Client) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	client := NewClient(config.ChapaConfig{
		BaseURL: srv.URL,
		Secret:  "secret-key",
		Timeout: time.Second,
	}, nil)
	return srv, client
}

func TestVerifyTransactionSettled(t *testing.T) {
	srv, client := newVerifyServer(t, http.StatusOK, `{"status":"success","data":{"status":"success"}}`)
	defer srv.Close()

	settled, err := client.VerifyTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestVerifyTransactionPending(t *testing.T) {
	srv, client := newVerifyServer(t, http.StatusOK, `{"status":"success","data":{"status":"pending"}}`)
	defer srv.Close()

	settled, err := client.VerifyTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestVerifyTransactionGatewayRejection(t *testing.T) {
	srv, client := newVerifyServer(t, http.StatusNotFound, `{"status":"failed","data":{}}`)
	defer srv.Close()

	settled, err := client.VerifyTransaction(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestVerifyTransactionTransportError(t *testing.T) {
	srv, client := newVerifyServer(t, http.StatusOK, `{}`)
	srv.Close()

	_, err := client.VerifyTransaction(context.Background(), "tx-1")
	require.Error(t, err)
}
