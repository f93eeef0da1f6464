package notification

import (
	"context"
	"fmt"

	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type LogStore interface {
	InsertEmailLog(ctx context.Context, entry *models.EmailLog) error
}

// Notifier renders and sends the gala emails. Send failures are logged and
// recorded in email_log, never returned.
type Notifier struct {
	Sender     Sender
	Store      LogStore
	Logger     *logger.Logger
	From       string
	AdminEmail string
	BaseURL    string
}

func (n *Notifier) SendReceipt(ctx context.Context, d OrderDetails) bool {
	subject, body := ReceiptEmail(d, n.AdminEmail)
	return n.send(ctx, d.Order.ID, d.Order.CustomerEmail, TypePurchaseReceipt, subject, body)
}

func (n *Notifier) SendPaymentReceived(ctx context.Context, o models.Order) bool {
	subject, body := PaymentReceivedEmail(o, n.AdminEmail)
	return n.send(ctx, o.ID, o.CustomerEmail, TypePaymentReceived, subject, body)
}

func (n *Notifier) SendAdminNotification(ctx context.Context, d OrderDetails) bool {
	if n.AdminEmail == "" {
		return false
	}
	subject, body := AdminNotificationEmail(d, n.BaseURL)
	return n.send(ctx, d.Order.ID, n.AdminEmail, TypeAdminNotification, subject, body)
}

func (n *Notifier) SendPasswordReset(ctx context.Context, to, token string) bool {
	subject, body := PasswordResetEmail(fmt.Sprintf("%s/admin/reset-password?token=%s", n.BaseURL, token))
	return n.send(ctx, "", to, TypePasswordReset, subject, body)
}

func (n *Notifier) SendCustom(ctx context.Context, orderID, to, subject, body string) bool {
	return n.send(ctx, orderID, to, TypeCustom, subject, body)
}

func (n *Notifier) send(ctx context.Context, orderID, to, emailType, subject, body string) bool {
	res, err := n.Sender.Send(ctx, Message{From: n.From, To: to, Subject: subject, Body: body})

	entry := &models.EmailLog{
		ID:        utils.GenerateID(),
		OrderID:   orderID,
		Recipient: to,
		EmailType: emailType,
		Subject:   subject,
		Status:    models.EmailSent,
	}
	if err != nil {
		entry.Status = models.EmailFailed
		entry.Error = err.Error()
		n.Logger.Error("EMAIL", fmt.Sprintf("%s to %s failed: %v", emailType, to, err))
	} else {
		entry.ProviderID = res.ProviderID
		n.Logger.Info("EMAIL", fmt.Sprintf("%s sent to %s", emailType, to))
	}

	// logged even when ctx is already cancelled
	if logErr := n.Store.InsertEmailLog(context.WithoutCancel(ctx), entry); logErr != nil {
		n.Logger.Error("EMAIL", fmt.Sprintf("Failed to log email: %v", logErr))
	}
	return err == nil
}
