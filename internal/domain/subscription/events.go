package subscription

import "time"

// EventType identifies a subscription lifecycle event.
type EventType string

const (
	EventTrialStarted EventType = "subscription.trial_started"
	EventFreeGranted  EventType = "subscription.free_granted"
	EventCancelled    EventType = "subscription.cancelled"
	EventTrialExpired EventType = "subscription.trial_expired"
)

// SubscriptionEvent is published after a lifecycle change has been committed.
type SubscriptionEvent struct {
	Type            EventType  `json:"type"`
	SubscriptionID  uint       `json:"subscription_id"`
	SubscriptionSID string     `json:"subscription_sid"`
	UserID          uint       `json:"user_id"`
	Plan            string     `json:"plan"`
	Status          string     `json:"status"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

func NewSubscriptionEvent(eventType EventType, s *Subscription, at time.Time) SubscriptionEvent {
	return SubscriptionEvent{
		Type:            eventType,
		SubscriptionID:  s.ID(),
		SubscriptionSID: s.SID(),
		UserID:          s.UserID(),
		Plan:            s.Plan().String(),
		Status:          s.Status().String(),
		EndedAt:         s.EndedAt(),
		Timestamp:       at,
	}
}
