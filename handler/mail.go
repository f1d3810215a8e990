package handler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"pizzaria_backend/config"
	"pizzaria_backend/model"
	"pizzaria_backend/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer avisa a equipe por e-mail sobre pedidos novos e cancelados, com o QR
// do código do pedido embutido para conferência no balcão. Sempre chamado em
// goroutine, nunca bloqueia o fluxo do checkout.
type Mailer struct {
	Log *zap.SugaredLogger
}

func NewMailer(log *zap.SugaredLogger) *Mailer {
	return &Mailer{Log: log}
}

func (m *Mailer) SendNewOrderMail(order model.Order) {
	subject := fmt.Sprintf("Novo pedido #%d - %s", order.OrderNumber, order.PublicCode)
	m.send(order, subject, m.renderOrderBody(order, "Novo pedido recebido"))
}

func (m *Mailer) SendCancellationMail(order model.Order) {
	subject := fmt.Sprintf("Pedido #%d cancelado - %s", order.OrderNumber, order.PublicCode)
	m.send(order, subject, m.renderOrderBody(order, "Pedido cancelado"))
}

func (m *Mailer) renderOrderBody(order model.Order, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", title)
	fmt.Fprintf(&b, "<p><b>%s</b> - %s (%s)</p>", order.PublicCode, order.CustomerName, order.Phone)
	fmt.Fprintf(&b, "<p>Tipo: %s | Pagamento: %s (%s)</p>", order.OrderType, order.PaymentMethod, order.PaymentStatus)
	if order.Address != nil {
		fmt.Fprintf(&b, "<p>Endereço: %s</p>", *order.Address)
	}
	if order.ReservationDate != nil && order.ReservationTime != nil {
		fmt.Fprintf(&b, "<p>Reserva: %s às %s</p>", *order.ReservationDate, *order.ReservationTime)
	}
	b.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%dx %s %s - R$ %.2f</li>", item.Quantity, item.Name, item.Size, item.UnitPrice)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: <b>R$ %.2f</b></p>", order.Total)
	b.WriteString(`<p><img src="cid:qr_pedido"/></p>`)
	return b.String()
}

func (m *Mailer) send(order model.Order, subject, htmlBody string) {
	to := config.Config("ORDER_NOTIFY_TO")
	host := config.Config("SMTP_HOST")
	if to == "" || host == "" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.ConfigOr("SMTP_FROM", "Pizzaria <pedidos@pizzaria.local>"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if qrBytes, err := utils.GenerateQRCode(order.PublicCode, 400); err == nil {
		msg.Embed("qr_pedido.png", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qrBytes)
			return err
		}), gomail.SetHeader(map[string][]string{
			"Content-Type":        {"image/png"},
			"Content-ID":          {"<qr_pedido>"},
			"Content-Disposition": {"inline"},
		}))
	}

	port, err := strconv.Atoi(config.ConfigOr("SMTP_PORT", "587"))
	if err != nil {
		port = 587
	}

	d := gomail.NewDialer(host, port, config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"))
	if err := d.DialAndSend(msg); err != nil {
		m.Log.Warnw("falha ao enviar e-mail do pedido", "pedido", order.PublicCode, "err", err)
	}
}
