package email

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"cookiq/common"
	"cookiq/models"
)

// Sender delivers messages. *gomail.Dialer is the production one.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailService struct {
	sender Sender
	from   string
}

// NewEmailService returns nil when SMTP is not configured; a nil service
// sends nothing.
func NewEmailService(cfg *common.Config) *EmailService {
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		zap.S().Info("SMTP not configured - order e-mails are disabled")
		return nil
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cast.ToInt(cfg.SMTPPort), cfg.SMTPUser, cfg.SMTPPassword)
	return NewEmailServiceWithSender(dialer, cfg.SMTPFrom)
}

func NewEmailServiceWithSender(sender Sender, from string) *EmailService {
	return &EmailService{sender: sender, from: from}
}

func (e *EmailService) SendOrderConfirmation(to string, order *models.Order) error {
	if e == nil {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("CookIQ - Xác nhận đơn hàng #%s", shortID(order.ID)))
	m.SetBody("text/plain", orderBody(order))

	if err := e.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orderBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Xin chào %s,\n\n", order.CustomerName)
	fmt.Fprintf(&b, "Cảm ơn bạn đã đặt hàng tại CookIQ. Đơn hàng #%s đã được ghi nhận.\n\n", shortID(order.ID))
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s x%d: %s\n", item.ProductName, item.Quantity, models.FormatVND(item.Price*float64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTổng cộng: %s\n", models.FormatVND(order.TotalAmount))
	fmt.Fprintf(&b, "Thanh toán: %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "Giao đến: %s (%s)\n", order.Address, order.Phone)
	b.WriteString("\n---\nCookIQ - Thực phẩm hữu cơ\n")
	return b.String()
}
