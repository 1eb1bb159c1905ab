package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBulk(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/mtsms", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ids":[101,102],"usage":{"total_cost":0.1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "SlipAlert", 5*time.Second)
	result, err := c.SendBulk(context.Background(), "hello", []string{"+358401234567", "+358407654321"})
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 102}, result.MessageIDs)
	assert.Equal(t, "SlipAlert", got.Sender)
	assert.Equal(t, "hello", got.Message)
	require.Len(t, got.Recipients, 2)
	assert.Equal(t, "+358401234567", got.Recipients[0].MSISDN)
	assert.Equal(t, "standard", got.Class)
	assert.Equal(t, 86400, got.ValidityPeriod)
}

func TestSendBulkGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong", "SlipAlert", 5*time.Second)
	_, err := c.SendBulk(context.Background(), "hello", []string{"+358401234567"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendBulkNoRecipients(t *testing.T) {
	c := NewClient("http://unused", "key", "SlipAlert", time.Second)
	result, err := c.SendBulk(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Empty(t, result.MessageIDs)
}
