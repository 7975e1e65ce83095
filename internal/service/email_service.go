package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 邮件服务是否可用
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// OrderStatusEmailInput 订单状态邮件输入
type OrderStatusEmailInput struct {
	OrderNumber     string
	CustomerName    string
	Status          string
	OrderType       string
	Total           models.Money
	DeliveryTime    string
	RejectionReason string
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderStatusEmailInput, lang string) error {
	subject, body := buildOrderStatusContent(input, lang)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendPartialOrderAlert 通知店员处理缺少明细的订单
func (s *EmailService) SendPartialOrderAlert(toEmail, orderNumber, reason string) error {
	subject := fmt.Sprintf("[Ali Baba] Order %s saved without items", orderNumber)
	body := fmt.Sprintf("Order %s was stored but its items could not be written.\n\nReason: %s\n\nPlease contact the customer and re-enter the order manually.",
		orderNumber, strings.TrimSpace(reason))
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if !s.Enabled() {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return newValidationError("email", "invalid recipient address")
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

type orderStatusCopy struct {
	subject  string
	greeting string
	orderNo  string
	total    string
	statuses map[string]string
	pickup   string
	delivery string
	reason   string
	closing  string
}

var orderStatusCopies = map[string]orderStatusCopy{
	constants.LanguageEN: {
		subject:  "Your order %s: %s",
		greeting: "Hello %s,",
		orderNo:  "Order No: %s",
		total:    "Total: EUR %s",
		statuses: map[string]string{
			constants.OrderStatusPending:   "received",
			constants.OrderStatusConfirmed: "confirmed",
			constants.OrderStatusPreparing: "being prepared",
			constants.OrderStatusReady:     "ready",
			constants.OrderStatusDelivered: "delivered",
			constants.OrderStatusCancelled: "cancelled",
		},
		pickup:   "Estimated pickup time: %s",
		delivery: "Estimated delivery time: %s",
		reason:   "Reason: %s",
		closing:  "Thank you for ordering at Ali Baba.",
	},
	constants.LanguageDE: {
		subject:  "Ihre Bestellung %s: %s",
		greeting: "Hallo %s,",
		orderNo:  "Bestellnummer: %s",
		total:    "Gesamt: EUR %s",
		statuses: map[string]string{
			constants.OrderStatusPending:   "eingegangen",
			constants.OrderStatusConfirmed: "bestätigt",
			constants.OrderStatusPreparing: "in Zubereitung",
			constants.OrderStatusReady:     "bereit",
			constants.OrderStatusDelivered: "zugestellt",
			constants.OrderStatusCancelled: "storniert",
		},
		pickup:   "Voraussichtliche Abholzeit: %s",
		delivery: "Voraussichtliche Lieferzeit: %s",
		reason:   "Grund: %s",
		closing:  "Vielen Dank für Ihre Bestellung bei Ali Baba.",
	},
}

func buildOrderStatusContent(input OrderStatusEmailInput, lang string) (string, string) {
	texts, ok := orderStatusCopies[ResolveLanguage(lang)]
	if !ok {
		texts = orderStatusCopies[constants.LanguageDefault]
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	label, ok := texts.statuses[status]
	if !ok {
		label = status
	}

	lines := []string{
		fmt.Sprintf(texts.greeting, strings.TrimSpace(input.CustomerName)),
		"",
		fmt.Sprintf(texts.orderNo, input.OrderNumber),
		fmt.Sprintf(texts.total, input.Total.String()),
	}
	if status == constants.OrderStatusConfirmed && strings.TrimSpace(input.DeliveryTime) != "" {
		format := texts.pickup
		if input.OrderType == constants.OrderTypeDelivery {
			format = texts.delivery
		}
		lines = append(lines, fmt.Sprintf(format, input.DeliveryTime))
	}
	if status == constants.OrderStatusCancelled && strings.TrimSpace(input.RejectionReason) != "" {
		lines = append(lines, fmt.Sprintf(texts.reason, input.RejectionReason))
	}
	lines = append(lines, "", texts.closing)

	return fmt.Sprintf(texts.subject, input.OrderNumber, label), strings.Join(lines, "\n")
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
