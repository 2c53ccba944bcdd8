package notification_test

import (
	"testing"
	"time"

	"poolside/internal/domain/notification"
)

func TestNotification_Persistent(t *testing.T) {
	n := notification.Notification{Message: "Session full", Kind: notification.KindError}
	if !n.Persistent() {
		t.Error("notice without TTL should be persistent")
	}
	n.TTL = notification.DefaultSuccessTTL
	if n.Persistent() {
		t.Error("notice with TTL should auto-clear")
	}
}

func TestNotification_ExpiresAt(t *testing.T) {
	shown := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	n := notification.Notification{Message: "Released", Kind: notification.KindSuccess, ShownAt: shown, TTL: 3 * time.Second}
	if got := n.ExpiresAt(); !got.Equal(shown.Add(3 * time.Second)) {
		t.Errorf("ExpiresAt() = %v", got)
	}
}

func TestNotification_IsZero(t *testing.T) {
	if !(notification.Notification{}).IsZero() {
		t.Error("empty notification should be zero")
	}
	if (notification.Notification{Message: "x"}).IsZero() {
		t.Error("notification with message should not be zero")
	}
}
