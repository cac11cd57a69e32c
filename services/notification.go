package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"houseledger-backend/config"
	"houseledger-backend/database"
	"houseledger-backend/models"
)

type NotificationService struct{}

var notifService *NotificationService

func GetNotificationService() *NotificationService {
	if notifService == nil {
		notifService = &NotificationService{}
	}
	return notifService
}

// ============================================================
// PUSH NOTIFICATIONS via FCM HTTP API
// ============================================================

type FCMMessage struct {
	To           string            `json:"to"`
	Notification FCMNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type FCMNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

func (ns *NotificationService) sendPush(fcmToken string, title string, body string, data map[string]string) {
	if fcmToken == "" || config.AppConfig.FCMServerKey == "" {
		return
	}

	msg := FCMMessage{
		To: fcmToken,
		Notification: FCMNotification{
			Title: title,
			Body:  body,
			Sound: "default",
		},
		Data: data,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		log.Printf("❌ FCM marshal error: %v", err)
		return
	}

	req, err := http.NewRequest("POST", "https://fcm.googleapis.com/fcm/send", bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("❌ FCM request error: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+config.AppConfig.FCMServerKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("❌ FCM send error: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		log.Printf("⚠️  FCM returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

type SendGridEmail struct {
	Personalizations []SGPersonalization `json:"personalizations"`
	From             SGEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []SGContent         `json:"content"`
}

type SGPersonalization struct {
	To []SGEmail `json:"to"`
}

type SGEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SGContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (ns *NotificationService) sendEmail(toEmail string, toName string, subject string, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	email := SendGridEmail{
		Personalizations: []SGPersonalization{
			{
				To: []SGEmail{{Email: toEmail, Name: toName}},
			},
		},
		From:    SGEmail{Email: config.AppConfig.SendGridFrom, Name: config.AppConfig.AppName},
		Subject: subject,
		Content: []SGContent{
			{Type: "text/html", Value: htmlBody},
		},
	}

	jsonData, err := json.Marshal(email)
	if err != nil {
		log.Printf("❌ Email marshal error: %v", err)
		return
	}

	req, err := http.NewRequest("POST", "https://api.sendgrid.com/v3/mail/send", bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("❌ Email request error: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.AppConfig.SendGridAPIKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotifyExpenseAdded pushes each member's share of a new expense
func (ns *NotificationService) NotifyExpenseAdded(expense models.Expense, allocations []models.ExpenseAllocation, payer models.User, house models.House) {
	for _, alloc := range allocations {
		if alloc.UserID == expense.PaidBy {
			continue // Don't notify the payer
		}

		var user models.User
		if err := database.DB.First(&user, alloc.UserID).Error; err != nil {
			continue
		}

		title := fmt.Sprintf("%s added an expense", payer.FullName)
		body := fmt.Sprintf("You owe %s %.2f for \"%s\" in %s", expense.Currency, alloc.Amount, expense.Type, house.Name)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":       "expense_added",
			"expense_id": expense.ID.String(),
			"house_id":   expense.HouseID.String(),
		})

		htmlBody := buildShareEmailHTML(payer.FullName, user.FullName, expense.Type, alloc.Amount, expense.Currency, house.Name)
		ns.sendEmail(user.Email, user.FullName, title, htmlBody)
	}
}

// NotifyPaymentCreated tells the payee there is a pending payment waiting
// for their approval.
func (ns *NotificationService) NotifyPaymentCreated(payment models.Payment, payer models.User, payee models.User, house models.House) {
	title := fmt.Sprintf("%s sent you a payment", payer.FullName)
	body := fmt.Sprintf("%s recorded a %s payment of %.2f in %s — approve or reject it", payer.FullName, payment.Method, payment.Amount, house.Name)

	ns.sendPush(payee.FCMToken, title, body, map[string]string{
		"type":       "payment_created",
		"payment_id": payment.ID.String(),
		"house_id":   payment.HouseID.String(),
	})

	htmlBody := buildPaymentEmailHTML(payer.FullName, payee.FullName, payment.Amount, house.Name, "is waiting for your approval")
	ns.sendEmail(payee.Email, payee.FullName, title, htmlBody)
}

// NotifyPaymentResolved tells the payer their payment was approved or rejected.
func (ns *NotificationService) NotifyPaymentResolved(payment models.Payment, payer models.User, payee models.User, house models.House) {
	var verb string
	if payment.Status == models.PaymentApproved {
		verb = "approved"
	} else {
		verb = "rejected"
	}

	title := fmt.Sprintf("%s %s your payment", payee.FullName, verb)
	body := fmt.Sprintf("Your payment of %.2f in %s was %s", payment.Amount, house.Name, verb)

	ns.sendPush(payer.FCMToken, title, body, map[string]string{
		"type":       "payment_" + verb,
		"payment_id": payment.ID.String(),
		"house_id":   payment.HouseID.String(),
	})

	htmlBody := buildPaymentEmailHTML(payer.FullName, payee.FullName, payment.Amount, house.Name, "was "+verb)
	ns.sendEmail(payer.Email, payer.FullName, title, htmlBody)
}

// NotifyBillFinalized pushes each member's share of a finalized bill
func (ns *NotificationService) NotifyBillFinalized(bill models.Bill, allocations []models.BillAllocation, house models.House) {
	for _, alloc := range allocations {
		if alloc.UserID == bill.ResponsibleUserID {
			continue
		}

		var user models.User
		if err := database.DB.First(&user, alloc.UserID).Error; err != nil {
			continue
		}

		title := fmt.Sprintf("Bill \"%s\" finalized", bill.Title)
		body := fmt.Sprintf("Your share is %s %.2f in %s", bill.Currency, alloc.Amount, house.Name)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":     "bill_finalized",
			"bill_id":  bill.ID.String(),
			"house_id": bill.HouseID.String(),
		})
	}
}

// NotifyMemberAdded sends push + email to the newly added member
func (ns *NotificationService) NotifyMemberAdded(house models.House, adder models.User, newMember models.User) {
	title := fmt.Sprintf("You were added to \"%s\"", house.Name)
	body := fmt.Sprintf("%s added you to the house \"%s\"", adder.FullName, house.Name)

	ns.sendPush(newMember.FCMToken, title, body, map[string]string{
		"type":     "member_added",
		"house_id": house.ID.String(),
	})

	htmlBody := buildMemberAddedEmailHTML(adder.FullName, newMember.FullName, house.Name)
	ns.sendEmail(newMember.Email, newMember.FullName, title, htmlBody)
}

// NotifyInvitation sends email to non-registered users
func (ns *NotificationService) NotifyInvitation(email string, inviterName string, houseName string) {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, houseName, config.AppConfig.AppName)
	htmlBody := buildInvitationEmailHTML(inviterName, houseName)
	ns.sendEmail(email, "", subject, htmlBody)
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

func buildShareEmailHTML(payerName, userName, expenseType string, owedAmount float64, currency, houseName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">💰 New Expense Added</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p><strong>%s</strong> added a new expense in <strong>%s</strong>:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>%s</strong></p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: %s %.2f</strong></p>
		</div>
	</div>
</body>
</html>`, userName, payerName, houseName, expenseType, currency, owedAmount)
}

func buildPaymentEmailHTML(payerName, payeeName string, amount float64, houseName, outcome string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">💸 Payment Update</h2>
		<p>The payment of <strong>%.2f</strong> from <strong>%s</strong> to <strong>%s</strong> in <strong>%s</strong> %s.</p>
	</div>
</body>
</html>`, amount, payerName, payeeName, houseName, outcome)
}

func buildMemberAddedEmailHTML(adderName, memberName, houseName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">🏠 Welcome to %s</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p><strong>%s</strong> added you to the house <strong>%s</strong>. You can now record shared expenses and settle up with your housemates.</p>
	</div>
</body>
</html>`, houseName, memberName, adderName, houseName)
}

func buildInvitationEmailHTML(inviterName, houseName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">🏠 You're invited!</h2>
		<p><strong>%s</strong> invited you to join the house <strong>%s</strong> on %s.</p>
		<p>Register with this email address and you'll be added automatically.</p>
	</div>
</body>
</html>`, inviterName, houseName, config.AppConfig.AppName)
}
