package helper

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pizzaria_backend/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPixClient(baseURL string) *PixClient {
	return &PixClient{
		BaseURL:       baseURL,
		APIKey:        "sk_teste",
		WebhookSecret: "segredo",
		HTTP:          &http.Client{Timeout: 2 * time.Second},
		log:           zap.NewNop().Sugar(),
	}
}

func TestCreateCharge(t *testing.T) {
	var gotBody chargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/charges", r.URL.Path)
		require.Equal(t, "Bearer sk_teste", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"charge_id":       "ch_123",
			"copy_paste_code": "00020126580014BR.GOV.BCB.PIX...",
			"deep_link":       "pix://pay/ch_123",
			"ticket_url":      "https://provedor.local/ch_123",
			"expires_at":      time.Now().Add(5 * time.Minute).Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	client := testPixClient(srv.URL)
	session, err := client.CreateCharge(context.Background(), 100.0, "PED-ABC12345")
	require.NoError(t, err)

	assert.Equal(t, int64(10000), gotBody.AmountCents)
	assert.Equal(t, "PED-ABC12345", gotBody.Reference)
	assert.Equal(t, 300, gotBody.ExpiresIn)

	assert.Equal(t, "ch_123", session.ProviderChargeID)
	assert.Equal(t, session.CopyPasteCode, session.QRCodePayload, "sem payload explícito usa o copia-e-cola")
	assert.True(t, strings.HasPrefix(session.QRCodeImage, "data:image/png;base64,"))
	assert.Equal(t, "pix://pay/ch_123", session.DeepLink)
	require.NotNil(t, session.TicketURL)
	assert.Equal(t, model.SessionPending, session.Status)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), session.ExpiresAt, 5*time.Second)
}

func TestCreateChargeExpiryFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"charge_id":       "ch_456",
			"copy_paste_code": "00020126...",
		})
	}))
	defer srv.Close()

	session, err := testPixClient(srv.URL).CreateCharge(context.Background(), 50, "PED-X")
	require.NoError(t, err)
	// provedor sem expires_at: vale o TTL fixo de 300s
	assert.WithinDuration(t, time.Now().Add(PixSessionTTL), session.ExpiresAt, 5*time.Second)
	assert.Nil(t, session.TicketURL)
}

func TestCreateChargeProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"saldo de homologação"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := testPixClient(srv.URL).CreateCharge(context.Background(), 50, "PED-X")
	var payErr *model.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, "createCharge", payErr.Op)
	assert.Contains(t, payErr.Error(), "422")
}

func TestCreateChargeNetworkFailure(t *testing.T) {
	client := testPixClient("http://127.0.0.1:1") // porta fechada
	_, err := client.CreateCharge(context.Background(), 50, "PED-X")
	var payErr *model.PaymentError
	require.ErrorAs(t, err, &payErr)
}

func TestCreateChargeIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"charge_id": "ch_789"})
	}))
	defer srv.Close()

	_, err := testPixClient(srv.URL).CreateCharge(context.Background(), 50, "PED-X")
	var payErr *model.PaymentError
	require.ErrorAs(t, err, &payErr)
}

func TestCancelChargeToleratesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	// cancelar cobrança que o provedor já descartou não é erro
	require.NoError(t, testPixClient(srv.URL).CancelCharge(context.Background(), "ch_sumiu"))
}

func TestRefund(t *testing.T) {
	var gotBody refundRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/charges/ch_123/refund", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"charge_id":    "ch_123",
			"amount_cents": 2550,
			"status":       "refunded",
		})
	}))
	defer srv.Close()

	amount := 25.50
	result, err := testPixClient(srv.URL).Refund(context.Background(), "ch_123", &amount)
	require.NoError(t, err)
	require.NotNil(t, gotBody.AmountCents)
	assert.Equal(t, int64(2550), *gotBody.AmountCents)
	assert.Equal(t, 25.50, result.Amount)
	assert.Equal(t, "refunded", result.Status)
}

func TestRefundFullAmountOmitsValue(t *testing.T) {
	var gotBody refundRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"charge_id": "ch_123", "amount_cents": 10000, "status": "refunded"})
	}))
	defer srv.Close()

	_, err := testPixClient(srv.URL).Refund(context.Background(), "ch_123", nil)
	require.NoError(t, err)
	assert.Nil(t, gotBody.AmountCents)
}

func TestVerifySignature(t *testing.T) {
	client := testPixClient("")
	body := []byte(`{"event":"charge.paid","charge_id":"ch_123"}`)

	mac := hmac.New(sha256.New, []byte("segredo"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifySignature(body, valid))
	assert.False(t, client.VerifySignature(body, "assinatura-errada"))
	assert.False(t, client.VerifySignature(body, ""))
	assert.False(t, client.VerifySignature([]byte("outro corpo"), valid))

	// sem segredo configurado nada passa
	client.WebhookSecret = ""
	assert.False(t, client.VerifySignature(body, valid))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	session := &model.PaymentSession{ExpiresAt: now.Add(PixSessionTTL)}
	assert.False(t, session.Expired(now))
	assert.False(t, session.Expired(now.Add(PixSessionTTL-time.Second)))
	assert.True(t, session.Expired(now.Add(PixSessionTTL+time.Second)))
}
