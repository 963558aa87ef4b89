package service

import (
	"context"
	"fmt"
	"time"

	"github.com/responsainveniree/student-info-api/pkg/jobs"
	"github.com/responsainveniree/student-info-api/pkg/mailer"
)

// OTPMessage is one password-reset code addressed to an account.
type OTPMessage struct {
	Email     string
	Name      string
	Code      string
	ExpiresIn time.Duration
}

// OTPNotifier hands a reset code to the delivery channel.
type OTPNotifier interface {
	NotifyOTP(ctx context.Context, msg OTPMessage) error
}

// QueuedOTPNotifier delivers codes by email from a background queue.
type QueuedOTPNotifier struct {
	queue *jobs.Queue[OTPMessage]
}

// NewQueuedOTPNotifier wires a delivery queue to m. Start must be called before use.
func NewQueuedOTPNotifier(m mailer.Mailer, cfg jobs.Config) *QueuedOTPNotifier {
	deliver := func(ctx context.Context, job jobs.Job[OTPMessage]) error {
		return m.Send(ctx, otpEmail(job.Payload))
	}
	return &QueuedOTPNotifier{queue: jobs.New("password-reset-mail", deliver, cfg)}
}

// Start launches the delivery workers.
func (n *QueuedOTPNotifier) Start(ctx context.Context) { n.queue.Start(ctx) }

// Stop waits for in-flight deliveries.
func (n *QueuedOTPNotifier) Stop() { n.queue.Stop() }

// NotifyOTP enqueues the message.
func (n *QueuedOTPNotifier) NotifyOTP(ctx context.Context, msg OTPMessage) error {
	_, err := n.queue.Enqueue(ctx, msg)
	return err
}

func otpEmail(msg OTPMessage) mailer.Message {
	return mailer.Message{
		ToName:    msg.Name,
		ToAddress: msg.Email,
		Subject:   "Password reset code",
		Text: fmt.Sprintf("Hello %s,\n\nYour password reset code is %s. It expires in %d minutes.\nIgnore this email if you did not ask for a reset.\n",
			msg.Name, msg.Code, int(msg.ExpiresIn.Minutes())),
	}
}
