package notification

import (
	"fmt"
	"strings"

	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

const (
	TypePurchaseReceipt   = "purchase_receipt"
	TypePaymentReceived   = "payment_received"
	TypeAdminNotification = "admin_notification"
	TypePasswordReset     = "password_reset"
	TypeCustom            = "custom"
)

const (
	SubjectReceiptCard     = "YCKC Gala - Order Confirmation"
	SubjectReceiptCheck    = "YCKC Gala - Order Received (Payment Pending)"
	SubjectPaymentReceived = "YCKC Gala - Payment Confirmed"
	SubjectPasswordReset   = "YCKC Gala Admin - Password Reset"
)

// OrderDetails is what the order emails render.
type OrderDetails struct {
	Order models.Order
	Lines []models.OrderLine
}

func orderReference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func greeting(o models.Order) string {
	if o.CustomerName != "" {
		return o.CustomerName
	}
	return "Valued Supporter"
}

func writeItems(b *strings.Builder, d OrderDetails) {
	for _, l := range d.Lines {
		fmt.Fprintf(b, "  %s x%d  %s\n", l.ProductName, l.Quantity, utils.FormatCents(l.UnitPriceCents*int64(l.Quantity)))
	}
	if d.Order.DonationCents > 0 {
		fmt.Fprintf(b, "  Additional Donation  %s\n", utils.FormatCents(d.Order.DonationCents))
	}
	fmt.Fprintf(b, "\nTotal: %s\n", utils.FormatCents(d.Order.TotalCents))
}

func footer(b *strings.Builder, adminEmail string) {
	b.WriteString("\nYouth Chorus of Kansas City\nhttps://youthchoruskc.org\n")
	if adminEmail != "" {
		fmt.Fprintf(b, "Questions? Contact us at %s\n", adminEmail)
	}
}

// ReceiptEmail is sent when a card order is paid or a check order is placed.
func ReceiptEmail(d OrderDetails, adminEmail string) (subject, body string) {
	check := d.Order.PaymentMethod == models.PaymentCheck
	ref := orderReference(d.Order.ID)

	var b strings.Builder
	b.WriteString("A Sky Full of Stars\nYouth Chorus of Kansas City Annual Fundraiser Gala\n\n")
	fmt.Fprintf(&b, "Dear %s,\n\n", greeting(d.Order))
	if check {
		subject = SubjectReceiptCheck
		b.WriteString("We have received your order for the YCKC Annual Gala. Please see payment instructions below.\n\n")
		b.WriteString("Payment Instructions\n")
		b.WriteString("Please mail your check to:\n  Youth Chorus of Kansas City\n  PO Box 414902\n  Kansas City, MO 64141\n")
		fmt.Fprintf(&b, "Make check payable to: Youth Chorus of Kansas City\nReference: Order #%s\n\n", ref)
	} else {
		subject = SubjectReceiptCard
		b.WriteString("Thank you for your purchase! We look forward to seeing you at the YCKC Annual Gala.\n\n")
	}

	b.WriteString("Order Details\n")
	writeItems(&b, d)
	fmt.Fprintf(&b, "\nOrder Reference: %s\nEmail: %s\n", ref, d.Order.CustomerEmail)
	footer(&b, adminEmail)
	return subject, b.String()
}

// PaymentReceivedEmail confirms a check payment once an admin records it.
func PaymentReceivedEmail(o models.Order, adminEmail string) (subject, body string) {
	var b strings.Builder
	b.WriteString("A Sky Full of Stars\nYouth Chorus of Kansas City\n\n")
	b.WriteString("Payment Received!\n\n")
	fmt.Fprintf(&b, "Dear %s,\n\n", greeting(o))
	fmt.Fprintf(&b, "We have received your payment of %s for order #%s.\n\n", utils.FormatCents(o.TotalCents), orderReference(o.ID))
	b.WriteString("Your tickets/sponsorship are now confirmed. We'll send you more information about the event as we get closer to the date.\n")
	footer(&b, adminEmail)
	return SubjectPaymentReceived, b.String()
}

func AdminNotificationEmail(d OrderDetails, baseURL string) (subject, body string) {
	o := d.Order
	subject = fmt.Sprintf("New Gala Order: %s from %s", utils.FormatCents(o.TotalCents), o.DisplayName())

	orEmpty := func(s string) string {
		if s == "" {
			return "(not provided)"
		}
		return s
	}
	payment := "Credit Card"
	if o.PaymentMethod == models.PaymentCheck {
		payment = "Check (pending)"
	}

	var b strings.Builder
	b.WriteString("New Gala Order\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", orEmpty(o.CustomerName))
	fmt.Fprintf(&b, "Email: %s\n", o.CustomerEmail)
	fmt.Fprintf(&b, "Phone: %s\n", orEmpty(o.CustomerPhone))
	fmt.Fprintf(&b, "Payment: %s\n\nItems\n", payment)
	writeItems(&b, d)
	fmt.Fprintf(&b, "\nView in Admin: %s/admin/orders\n", baseURL)
	return subject, b.String()
}

func PasswordResetEmail(resetURL string) (subject, body string) {
	var b strings.Builder
	b.WriteString("A password reset was requested for your YCKC Gala admin account.\n\n")
	fmt.Fprintf(&b, "Reset your password: %s\n\n", resetURL)
	b.WriteString("This link expires in 1 hour. If you did not request a reset, you can ignore this email.\n")
	return SubjectPasswordReset, b.String()
}
