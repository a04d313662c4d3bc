package handler

import (
	"net/http"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/testutil"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, endpoints []config.EndpointConfig, client *testutil.MockHTTPClient) *handler {
	cfg := config.GetDefaultConfig()
	cfg.Notification.Endpoints = endpoints

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	h, err := NewHandler(testutil.NewInMemoryPubSub(), cfg, client, log)
	require.NoError(t, err)
	return h.(*handler)
}

func notificationMessage(t *testing.T) *message.Message {
	notification := types.NewSubscriptionNotification(
		"com.example.app", 1700000000000, types.NotificationTypeRenewed, "token-1", "premium_monthly")
	payload, err := json.Marshal(notification)
	require.NoError(t, err)
	return message.NewMessage("msg-1", payload)
}

func TestProcessMessageDeliversToEnabledEndpoints(t *testing.T) {
	client := testutil.NewMockHTTPClient()
	client.RegisterResponse("/rtdn", testutil.MockResponse{StatusCode: http.StatusOK})

	h := newTestHandler(t, []config.EndpointConfig{
		{URL: "http://localhost:9000/rtdn", Enabled: true},
		{URL: "http://localhost:9001/disabled", Enabled: false},
	}, client)

	require.NoError(t, h.processMessage(notificationMessage(t)))

	requests := client.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "POST", requests[0].Method)
	assert.Equal(t, "http://localhost:9000/rtdn", requests[0].URL)
	assert.Contains(t, string(requests[0].Body), `"purchase_token":"token-1"`)
}

func TestProcessMessageReturnsDeliveryErrorForRetry(t *testing.T) {
	client := testutil.NewMockHTTPClient()
	// No route registered, delivery fails with 404

	h := newTestHandler(t, []config.EndpointConfig{
		{URL: "http://localhost:9000/rtdn", Enabled: true},
	}, client)

	err := h.processMessage(notificationMessage(t))
	require.Error(t, err)
}

func TestProcessMessageConsumesWithoutEndpoints(t *testing.T) {
	client := testutil.NewMockHTTPClient()
	h := newTestHandler(t, nil, client)

	require.NoError(t, h.processMessage(notificationMessage(t)))
	assert.Empty(t, client.Requests())
}

func TestProcessMessageDropsMalformedPayload(t *testing.T) {
	client := testutil.NewMockHTTPClient()
	h := newTestHandler(t, []config.EndpointConfig{
		{URL: "http://localhost:9000/rtdn", Enabled: true},
	}, client)

	msg := message.NewMessage("msg-bad", []byte("{not json"))
	require.NoError(t, h.processMessage(msg))
	assert.Empty(t, client.Requests())
}
