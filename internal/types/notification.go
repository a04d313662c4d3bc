package types

import (
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/samber/lo"
)

// NotificationType is the integer code carried in a subscription
// real-time developer notification
type NotificationType int

const (
	NotificationTypeRecovered           NotificationType = 1
	NotificationTypeRenewed             NotificationType = 2
	NotificationTypeCanceled            NotificationType = 3
	NotificationTypePurchased           NotificationType = 4
	NotificationTypeOnHold              NotificationType = 5
	NotificationTypeInGracePeriod       NotificationType = 6
	NotificationTypeRestarted           NotificationType = 7
	NotificationTypePriceChangeConfirmed NotificationType = 8 // reserved, never produced
	NotificationTypeDeferred            NotificationType = 9
	NotificationTypePaused              NotificationType = 10
	NotificationTypePauseScheduleChanged NotificationType = 11 // reserved, never produced
	NotificationTypeRevoked             NotificationType = 12
	NotificationTypeExpired             NotificationType = 13
)

func (t NotificationType) String() string {
	switch t {
	case NotificationTypeRecovered:
		return "SUBSCRIPTION_RECOVERED"
	case NotificationTypeRenewed:
		return "SUBSCRIPTION_RENEWED"
	case NotificationTypeCanceled:
		return "SUBSCRIPTION_CANCELED"
	case NotificationTypePurchased:
		return "SUBSCRIPTION_PURCHASED"
	case NotificationTypeOnHold:
		return "SUBSCRIPTION_ON_HOLD"
	case NotificationTypeInGracePeriod:
		return "SUBSCRIPTION_IN_GRACE_PERIOD"
	case NotificationTypeRestarted:
		return "SUBSCRIPTION_RESTARTED"
	case NotificationTypePriceChangeConfirmed:
		return "SUBSCRIPTION_PRICE_CHANGE_CONFIRMED"
	case NotificationTypeDeferred:
		return "SUBSCRIPTION_DEFERRED"
	case NotificationTypePaused:
		return "SUBSCRIPTION_PAUSED"
	case NotificationTypePauseScheduleChanged:
		return "SUBSCRIPTION_PAUSE_SCHEDULE_CHANGED"
	case NotificationTypeRevoked:
		return "SUBSCRIPTION_REVOKED"
	case NotificationTypeExpired:
		return "SUBSCRIPTION_EXPIRED"
	default:
		return "UNKNOWN"
	}
}

func (t NotificationType) Validate() error {
	if t < NotificationTypeRecovered || t > NotificationTypeExpired {
		return ierr.NewError("invalid notification type").
			WithHintf("Notification type must be between %d and %d", NotificationTypeRecovered, NotificationTypeExpired).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// OneTimeNotificationType is the code carried in a one-time product notification
type OneTimeNotificationType int

const (
	OneTimeNotificationTypePurchased OneTimeNotificationType = 1
	OneTimeNotificationTypeCanceled  OneTimeNotificationType = 2
)

// NotificationVersion is the version string stamped on every notification
const NotificationVersion = "1.0"

// SubscriptionNotification is the nested subscription payload of a
// developer notification
type SubscriptionNotification struct {
	Version          string           `json:"version"`
	NotificationType NotificationType `json:"notification_type"`
	PurchaseToken    string           `json:"purchase_token"`
	SubscriptionID   string           `json:"subscription_id"`
}

// OneTimeProductNotification is the nested one-time product payload of a
// developer notification
type OneTimeProductNotification struct {
	Version          string                  `json:"version"`
	NotificationType OneTimeNotificationType `json:"notification_type"`
	PurchaseToken    string                  `json:"purchase_token"`
	SKU              string                  `json:"sku"`
}

// TestNotification is the payload of a connectivity-test notification
type TestNotification struct {
	Version string `json:"version"`
}

// DeveloperNotification is the top-level RTDN envelope published to the
// notification topic. Exactly one of the nested payloads is set.
type DeveloperNotification struct {
	Version                    string                      `json:"version"`
	PackageName                string                      `json:"package_name"`
	EventTimeMillis            int64                       `json:"event_time_millis"`
	SubscriptionNotification   *SubscriptionNotification   `json:"subscription_notification,omitempty"`
	OneTimeProductNotification *OneTimeProductNotification `json:"one_time_product_notification,omitempty"`
	TestNotification           *TestNotification           `json:"test_notification,omitempty"`
}

// NewSubscriptionNotification builds a developer notification for a
// subscription lifecycle transition at the given simulated event time
func NewSubscriptionNotification(packageName string, eventTimeMillis int64, notificationType NotificationType, purchaseToken, subscriptionID string) *DeveloperNotification {
	return &DeveloperNotification{
		Version:         NotificationVersion,
		PackageName:     packageName,
		EventTimeMillis: eventTimeMillis,
		SubscriptionNotification: &SubscriptionNotification{
			Version:          NotificationVersion,
			NotificationType: notificationType,
			PurchaseToken:    purchaseToken,
			SubscriptionID:   subscriptionID,
		},
	}
}

// NewOneTimeProductNotification builds a developer notification for a
// one-time product purchase event
func NewOneTimeProductNotification(packageName string, eventTimeMillis int64, notificationType OneTimeNotificationType, purchaseToken, sku string) *DeveloperNotification {
	return &DeveloperNotification{
		Version:         NotificationVersion,
		PackageName:     packageName,
		EventTimeMillis: eventTimeMillis,
		OneTimeProductNotification: &OneTimeProductNotification{
			Version:          NotificationVersion,
			NotificationType: notificationType,
			PurchaseToken:    purchaseToken,
			SKU:              sku,
		},
	}
}

// ReservedNotificationTypes lists the codes that are valid on the wire but
// never produced by any trigger
func ReservedNotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationTypePriceChangeConfirmed,
		NotificationTypePauseScheduleChanged,
	}
}

// IsReserved reports whether the notification type is a reserved code
func (t NotificationType) IsReserved() bool {
	return lo.Contains(ReservedNotificationTypes(), t)
}
