package publisher

import (
	"context"
	"testing"

	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/testutil"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(t *testing.T, ps *testutil.InMemoryPubSub) NotificationPublisher {
	cfg := config.GetDefaultConfig()
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	pub, err := NewPublisher(ps, cfg, log)
	require.NoError(t, err)
	return pub
}

func TestPublishNotificationEnvelope(t *testing.T) {
	ps := testutil.NewInMemoryPubSub()
	pub := newTestPublisher(t, ps)

	notification := types.NewSubscriptionNotification(
		"com.example.app",
		1700000000000,
		types.NotificationTypeRenewed,
		"token-1",
		"premium_monthly",
	)

	require.NoError(t, pub.PublishNotification(context.Background(), notification))

	msgs := ps.Messages("google-play-rtdn")
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, "com.example.app", msg.Metadata.Get("package_name"))
	assert.Contains(t, msg.UUID, types.UUID_PREFIX_NOTIFICATION)

	// The wire payload uses snake_case field names
	payload := string(msg.Payload)
	assert.Contains(t, payload, `"package_name":"com.example.app"`)
	assert.Contains(t, payload, `"event_time_millis":1700000000000`)
	assert.Contains(t, payload, `"notification_type":2`)
	assert.Contains(t, payload, `"purchase_token":"token-1"`)
	assert.Contains(t, payload, `"subscription_id":"premium_monthly"`)
	assert.NotContains(t, payload, "one_time_product_notification")
}

func TestPublishOneTimeProductNotification(t *testing.T) {
	ps := testutil.NewInMemoryPubSub()
	pub := newTestPublisher(t, ps)

	notification := types.NewOneTimeProductNotification(
		"com.example.app",
		1700000000000,
		types.OneTimeNotificationTypePurchased,
		"token-2",
		"coins_100",
	)

	require.NoError(t, pub.PublishNotification(context.Background(), notification))

	msgs := ps.Messages("google-play-rtdn")
	require.Len(t, msgs, 1)

	payload := string(msgs[0].Payload)
	assert.Contains(t, payload, `"sku":"coins_100"`)
	assert.NotContains(t, payload, "subscription_notification")
}
