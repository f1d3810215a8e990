package helper

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pizzaria_backend/config"
	"pizzaria_backend/model"
	"pizzaria_backend/utils"

	"go.uber.org/zap"
)

// Validade fixa da cobrança PIX (300 segundos).
const PixSessionTTL = 300 * time.Second

// PixClient é a ponte com o provedor de cobranças PIX. Ele cria, cancela e
// reembolsa cobranças; a confirmação nunca é consultada ativamente, chega
// empurrada pelo webhook do provedor.
type PixClient struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	HTTP          *http.Client
	log           *zap.SugaredLogger
}

func NewPixClient(log *zap.SugaredLogger) *PixClient {
	return &PixClient{
		BaseURL:       config.Config("PIX_API_URL"),
		APIKey:        config.Config("PIX_API_KEY"),
		WebhookSecret: config.Config("PIX_WEBHOOK_SECRET"),
		HTTP:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

type chargeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
	ExpiresIn   int    `json:"expires_in"`
}

type chargeResponse struct {
	ChargeID      string `json:"charge_id"`
	QRCodePayload string `json:"qr_code_payload"`
	CopyPasteCode string `json:"copy_paste_code"`
	DeepLink      string `json:"deep_link"`
	TicketURL     string `json:"ticket_url"`
	ExpiresAt     string `json:"expires_at"`
}

// CreateCharge registra a cobrança no provedor e monta a sessão completa.
// O QR é gerado localmente a partir do copia-e-cola, como data URI PNG.
func (p *PixClient) CreateCharge(ctx context.Context, amount float64, reference string) (*model.PaymentSession, error) {
	body, _ := json.Marshal(chargeRequest{
		AmountCents: int64(amount*100 + 0.5),
		Reference:   reference,
		ExpiresIn:   int(PixSessionTTL.Seconds()),
	})

	resp, err := p.do(ctx, http.MethodPost, "/v1/charges", body)
	if err != nil {
		return nil, &model.PaymentError{Op: "createCharge", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &model.PaymentError{
			Op:  "createCharge",
			Err: fmt.Errorf("provedor respondeu %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var charge chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, &model.PaymentError{Op: "createCharge", Err: err}
	}
	if charge.ChargeID == "" || charge.CopyPasteCode == "" {
		return nil, &model.PaymentError{Op: "createCharge", Err: errors.New("resposta do provedor incompleta")}
	}

	now := time.Now()
	expiresAt := now.Add(PixSessionTTL)
	if charge.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, charge.ExpiresAt); err == nil {
			expiresAt = t
		}
	}

	payload := charge.QRCodePayload
	if payload == "" {
		payload = charge.CopyPasteCode
	}

	qrImage, err := utils.QRCodeDataURI(charge.CopyPasteCode, 300)
	if err != nil {
		p.log.Warnw("falha ao gerar QR local, sessão segue sem imagem", "charge", charge.ChargeID, "err", err)
	}

	return &model.PaymentSession{
		ProviderChargeID: charge.ChargeID,
		QRCodePayload:    payload,
		QRCodeImage:      qrImage,
		CopyPasteCode:    charge.CopyPasteCode,
		DeepLink:         charge.DeepLink,
		TicketURL:        utils.StringPtr(charge.TicketURL),
		Status:           model.SessionPending,
		CreatedAt:        now,
		ExpiresAt:        expiresAt,
	}, nil
}

// CancelCharge cancela a cobrança no provedor (melhor esforço nos fluxos de
// substituição de sessão).
func (p *PixClient) CancelCharge(ctx context.Context, chargeID string) error {
	resp, err := p.do(ctx, http.MethodDelete, "/v1/charges/"+chargeID, nil)
	if err != nil {
		return &model.PaymentError{Op: "cancelCharge", Err: err}
	}
	defer resp.Body.Close()

	if (resp.StatusCode < 200 || resp.StatusCode > 299) && resp.StatusCode != http.StatusNotFound {
		return &model.PaymentError{Op: "cancelCharge", Err: fmt.Errorf("provedor respondeu %d", resp.StatusCode)}
	}
	return nil
}

type refundRequest struct {
	AmountCents *int64 `json:"amount_cents,omitempty"`
}

// Refund aciona o estorno no provedor; amount nulo estorna o valor cheio.
func (p *PixClient) Refund(ctx context.Context, chargeID string, amount *float64) (*model.RefundResult, error) {
	var req refundRequest
	if amount != nil {
		cents := int64(*amount*100 + 0.5)
		req.AmountCents = &cents
	}
	body, _ := json.Marshal(req)

	resp, err := p.do(ctx, http.MethodPost, "/v1/charges/"+chargeID+"/refund", body)
	if err != nil {
		return nil, &model.PaymentError{Op: "refund", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &model.PaymentError{
			Op:  "refund",
			Err: fmt.Errorf("provedor respondeu %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var result struct {
		ChargeID    string `json:"charge_id"`
		AmountCents int64  `json:"amount_cents"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &model.PaymentError{Op: "refund", Err: err}
	}

	return &model.RefundResult{
		ChargeID: result.ChargeID,
		Amount:   float64(result.AmountCents) / 100,
		Status:   result.Status,
	}, nil
}

// VerifySignature confere o HMAC-SHA256 do corpo cru do webhook.
func (p *PixClient) VerifySignature(body []byte, signature string) bool {
	if p.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(p.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (p *PixClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return p.HTTP.Do(req)
}
