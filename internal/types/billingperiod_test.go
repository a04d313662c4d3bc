package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingPeriodMillis(t *testing.T) {
	testCases := []struct {
		period   BillingPeriod
		expected int64
	}{
		{period: "P1D", expected: MillisPerDay},
		{period: "P7D", expected: 7 * MillisPerDay},
		{period: "P2W", expected: 14 * MillisPerDay},
		{period: "P1M", expected: 30 * MillisPerDay},
		{period: "P3M", expected: 90 * MillisPerDay},
		{period: "P1Y", expected: 365 * MillisPerDay},
	}

	for _, tc := range testCases {
		t.Run(string(tc.period), func(t *testing.T) {
			millis, err := tc.period.Millis()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, millis)
		})
	}
}

func TestBillingPeriodMillisInvalid(t *testing.T) {
	for _, period := range []BillingPeriod{"", "P", "1M", "P0D", "P-1D", "PT1H", "P1X", "PM"} {
		t.Run(string(period), func(t *testing.T) {
			_, err := period.Millis()
			assert.Error(t, err)
		})
	}
}

func TestFormatBillingPeriod(t *testing.T) {
	testCases := []struct {
		millis   int64
		expected BillingPeriod
	}{
		{millis: MillisPerDay, expected: "P1D"},
		{millis: 7 * MillisPerDay, expected: "P1W"},
		{millis: 30 * MillisPerDay, expected: "P1M"},
		{millis: 365 * MillisPerDay, expected: "P1Y"},
		{millis: 3 * MillisPerDay, expected: "P3D"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.expected), func(t *testing.T) {
			period, err := FormatBillingPeriod(tc.millis)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, period)
		})
	}

	_, err := FormatBillingPeriod(0)
	assert.Error(t, err)

	_, err = FormatBillingPeriod(MillisPerDay + 1)
	assert.Error(t, err)
}

func TestNotificationTypeNames(t *testing.T) {
	assert.Equal(t, "SUBSCRIPTION_RENEWED", NotificationTypeRenewed.String())
	assert.Equal(t, "SUBSCRIPTION_EXPIRED", NotificationTypeExpired.String())
	assert.Equal(t, "UNKNOWN", NotificationType(99).String())
}

func TestReservedNotificationTypes(t *testing.T) {
	assert.True(t, NotificationTypePriceChangeConfirmed.IsReserved())
	assert.True(t, NotificationTypePauseScheduleChanged.IsReserved())
	assert.False(t, NotificationTypeRenewed.IsReserved())

	// Reserved codes are still valid on the wire
	assert.NoError(t, NotificationTypePriceChangeConfirmed.Validate())
	assert.Error(t, NotificationType(0).Validate())
	assert.Error(t, NotificationType(14).Validate())
}
