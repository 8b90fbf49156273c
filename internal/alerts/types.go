package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail     = "email:welcome"
	TaskPasswordReset    = "email:password_reset"
	TaskServiceRequested = "email:service_requested"
	TaskServiceStarted   = "email:service_started"
	TaskServiceCompleted = "email:service_completed"
	TaskServiceVerified  = "email:service_verified"
	TaskServiceCanceled  = "email:service_canceled"
	TaskDisputeRaised    = "email:dispute_raised"
	TaskDisputeResolved  = "email:dispute_resolved"
	TaskFundAllocated    = "email:fund_allocated"
	TaskMessageNew       = "email:message_new"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	AccountID string        `json:"account_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// Password reset payload
type PasswordResetPayload struct {
	AccountID string        `json:"account_id"`
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}

// Service lifecycle payload, shared by all service transitions
type ServiceEventPayload struct {
	ServiceID  uint64        `json:"service_id"`
	ProviderID uint64        `json:"provider_id"`
	ReceiverID uint64        `json:"receiver_id"`
	Email      string        `json:"email"`
	Minutes    int64         `json:"minutes"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Dispute event payload
type DisputeEventPayload struct {
	DisputeID  uint64        `json:"dispute_id"`
	ServiceID  uint64        `json:"service_id"`
	Email      string        `json:"email"`
	Adjustment int64         `json:"adjustment"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Fund allocation payload (sent to the recipient)
type FundAllocationPayload struct {
	UserID   uint64        `json:"user_id"`
	Email    string        `json:"email"`
	Minutes  int64         `json:"minutes"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Message new payload (sent to recipient on new message)
type MessageNewPayload struct {
	ServiceID uint64        `json:"service_id"`
	SenderID  uint64        `json:"sender_id"`
	Recipient uint64        `json:"recipient"`
	Email     string        `json:"email"`
	Body      string        `json:"body"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}
