package model

import "time"

const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"

	NewsletterDraft   = "draft"
	NewsletterSent    = "sent"
	NewsletterPartial = "partial"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Newsletter struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	Content   string     `json:"content"`
	Status    string     `json:"status"`
	CreatedBy *int64     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Delivery records the outcome of sending one newsletter to one subscriber.
type Delivery struct {
	NewsletterID int64  `json:"newsletter_id"`
	SubscriberID int64  `json:"subscriber_id"`
	Email        string `json:"email"`
	Status       string `json:"status"`
}

// DispatchResult is returned by a newsletter send.
type DispatchResult struct {
	NewsletterID int64  `json:"newsletter_id"`
	Batches      int    `json:"batches"`
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	Status       string `json:"status"`
}
