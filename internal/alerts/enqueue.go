package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

func enqueueEmail(taskType string, payload any) error {
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(taskType, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueWelcomeEmail schedules a welcome email to a new account
func EnqueueWelcomeEmail(accountID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to the time bank, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining.\n\nRegister as a member to receive your starting time credits: %s", name, base)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	return enqueueEmail(TaskWelcomeEmail, WelcomeEmailPayload{
		AccountID: accountID, Name: name, Email: email, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueuePasswordReset schedules a password reset notification
func EnqueuePasswordReset(accountID, email, resetURL, name string) error {
	expiry := os.Getenv("PASSWORD_RESET_EXP_MINUTES")
	if expiry == "" {
		expiry = "30"
	}
	subject := "Password reset instructions"
	body := fmt.Sprintf("Hello %s,\n\nWe received a request to reset your password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in %s minutes. If you did not request this, no action is required.", name, resetURL, expiry)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	return enqueueEmail(TaskPasswordReset, PasswordResetPayload{
		AccountID: accountID, Email: email, ResetURL: resetURL, Envelope: env, Requested: time.Now(),
	})
}

// EnqueueServiceRequested notifies the provider of a new request
func EnqueueServiceRequested(serviceID, providerID, receiverID uint64, providerEmail string, estimated int64) error {
	env := EmailEnvelope{
		To:      providerEmail,
		Subject: "New service request",
		Body:    fmt.Sprintf("Service %d was requested from you, estimated at %d minutes.", serviceID, estimated),
	}
	return enqueueEmail(TaskServiceRequested, ServiceEventPayload{
		ServiceID: serviceID, ProviderID: providerID, ReceiverID: receiverID,
		Email: providerEmail, Minutes: estimated, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueServiceStarted notifies the receiver that the hold was taken
func EnqueueServiceStarted(serviceID, providerID, receiverID uint64, receiverEmail string, estimated int64) error {
	env := EmailEnvelope{
		To:      receiverEmail,
		Subject: "Your service has started",
		Body:    fmt.Sprintf("Service %d started. %d minutes were debited from your balance.", serviceID, estimated),
	}
	return enqueueEmail(TaskServiceStarted, ServiceEventPayload{
		ServiceID: serviceID, ProviderID: providerID, ReceiverID: receiverID,
		Email: receiverEmail, Minutes: estimated, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueServiceCompleted asks the receiver to verify
func EnqueueServiceCompleted(serviceID, providerID, receiverID uint64, receiverEmail string, actual int64) error {
	env := EmailEnvelope{
		To:      receiverEmail,
		Subject: "Your service is ready to verify",
		Body:    fmt.Sprintf("Service %d was completed with %d minutes of work. Please verify to release the credits.", serviceID, actual),
	}
	return enqueueEmail(TaskServiceCompleted, ServiceEventPayload{
		ServiceID: serviceID, ProviderID: providerID, ReceiverID: receiverID,
		Email: receiverEmail, Minutes: actual, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueServiceVerified notifies the provider of the payout
func EnqueueServiceVerified(serviceID, providerID, receiverID uint64, providerEmail string, actual int64) error {
	env := EmailEnvelope{
		To:      providerEmail,
		Subject: "Service verified and credited",
		Body:    fmt.Sprintf("Service %d was verified. %d minutes were credited to your balance.", serviceID, actual),
	}
	return enqueueEmail(TaskServiceVerified, ServiceEventPayload{
		ServiceID: serviceID, ProviderID: providerID, ReceiverID: receiverID,
		Email: providerEmail, Minutes: actual, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueServiceCanceled notifies the counterparty of a cancellation
func EnqueueServiceCanceled(serviceID, providerID, receiverID uint64, email string, refunded int64) error {
	body := fmt.Sprintf("Service %d was canceled.", serviceID)
	if refunded > 0 {
		body = fmt.Sprintf("Service %d was canceled. %d minutes were refunded to the receiver.", serviceID, refunded)
	}
	env := EmailEnvelope{To: email, Subject: "Service canceled", Body: body}
	return enqueueEmail(TaskServiceCanceled, ServiceEventPayload{
		ServiceID: serviceID, ProviderID: providerID, ReceiverID: receiverID,
		Email: email, Minutes: refunded, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueDisputeRaised notifies the counterparty that a dispute is open
func EnqueueDisputeRaised(disputeID, serviceID uint64, email string) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "A dispute was raised",
		Body:    fmt.Sprintf("Dispute %d was raised against service %d. The service is frozen until an arbiter resolves it.", disputeID, serviceID),
	}
	return enqueueEmail(TaskDisputeRaised, DisputeEventPayload{
		DisputeID: disputeID, ServiceID: serviceID, Email: email, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueDisputeResolved notifies a party of the verdict
func EnqueueDisputeResolved(disputeID, serviceID uint64, email string, adjustment int64) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "Dispute resolved",
		Body:    fmt.Sprintf("Dispute %d on service %d was resolved with a balance adjustment of %d minutes.", disputeID, serviceID, adjustment),
	}
	return enqueueEmail(TaskDisputeResolved, DisputeEventPayload{
		DisputeID: disputeID, ServiceID: serviceID, Email: email, Adjustment: adjustment, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueFundAllocated notifies the recipient of a community fund grant
func EnqueueFundAllocated(userID uint64, email string, minutes int64) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "Community fund grant",
		Body:    fmt.Sprintf("You received %d minutes from the community fund.", minutes),
	}
	return enqueueEmail(TaskFundAllocated, FundAllocationPayload{
		UserID: userID, Email: email, Minutes: minutes, Envelope: env, SentAt: time.Now(),
	})
}

// EnqueueMessageNew notifies the recipient of a new chat message
func EnqueueMessageNew(serviceID, senderID, recipientID uint64, email, body string) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "New message on your service",
		Body:    body,
	}
	return enqueueEmail(TaskMessageNew, MessageNewPayload{
		ServiceID: serviceID, SenderID: senderID, Recipient: recipientID,
		Email: email, Body: body, Envelope: env, SentAt: time.Now(),
	})
}
