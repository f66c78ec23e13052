package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"agrivet-checkout/internal/config"
)

// PaymobClient drives Paymob's hosted-iframe card flow. The three-legged
// session setup (auth token -> order registration -> payment key) runs
// entirely server-side; the secret API key never reaches the storefront.
type PaymobClient interface {
	CreateSession(ctx context.Context, amountCents int64, billing BillingData) (*PaymobSession, error)
	VerifyCallback(txn *PaymobTransaction, receivedHMAC string) bool
}

type paymobClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	apiKey        string
	integrationID string
	iframeID      string
	hmacSecret    string
}

// BillingData is what Paymob requires on the payment-key request. Fields the
// storefront does not collect are sent as "NA" per their API contract.
type BillingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Apartment   string `json:"apartment"`
	Floor       string `json:"floor"`
	Building    string `json:"building"`
	PostalCode  string `json:"postal_code"`
	State       string `json:"state"`
}

// NewBillingData fills the mandatory placeholders around the fields we have.
func NewBillingData(fullName, phone, street, city string) BillingData {
	return BillingData{
		FirstName:   fullName,
		LastName:    "NA",
		Email:       "NA",
		PhoneNumber: phone,
		Street:      street,
		City:        city,
		Country:     "EG",
		Apartment:   "NA",
		Floor:       "NA",
		Building:    "NA",
		PostalCode:  "NA",
		State:       "NA",
	}
}

type PaymobSession struct {
	IframeURL string
	OrderRef  string
}

// PaymobTransaction is the transaction-callback payload, flattened to the
// fields covered by the HMAC signature.
type PaymobTransaction struct {
	AmountCents          int64  `json:"amount_cents"`
	CreatedAt            string `json:"created_at"`
	Currency             string `json:"currency"`
	ErrorOccured         bool   `json:"error_occured"`
	HasParentTransaction bool   `json:"has_parent_transaction"`
	ID                   int64  `json:"id"`
	IntegrationID        int64  `json:"integration_id"`
	Is3DSecure           bool   `json:"is_3d_secure"`
	IsAuth               bool   `json:"is_auth"`
	IsCapture            bool   `json:"is_capture"`
	IsRefunded           bool   `json:"is_refunded"`
	IsStandalonePayment  bool   `json:"is_standalone_payment"`
	IsVoided             bool   `json:"is_voided"`
	Order                struct {
		ID int64 `json:"id"`
	} `json:"order"`
	Owner      int64 `json:"owner"`
	Pending    bool  `json:"pending"`
	SourceData struct {
		Pan     string `json:"pan"`
		SubType string `json:"sub_type"`
		Type    string `json:"type"`
	} `json:"source_data"`
	Success bool `json:"success"`
}

func NewPaymobClient(paymobCfg *config.Paymob) PaymobClient {
	return &paymobClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    paymobCfg.BaseApiURL,
		apiKey:        paymobCfg.APIKey,
		integrationID: paymobCfg.CardIntegrationID,
		iframeID:      paymobCfg.IframeID,
		hmacSecret:    paymobCfg.HMACSecret,
	}
}

func (c *paymobClientImpl) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paymob error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode paymob response: %w", err)
	}
	return nil
}

func (c *paymobClientImpl) getAuthToken(ctx context.Context) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	err := c.postJSON(ctx, "/auth/tokens", map[string]string{"api_key": c.apiKey}, &res)
	if err != nil {
		return "", fmt.Errorf("paymob auth: %w", err)
	}
	return res.Token, nil
}

func (c *paymobClientImpl) registerOrder(ctx context.Context, authToken string, amountCents int64) (int64, error) {
	payload := map[string]interface{}{
		"auth_token":      authToken,
		"delivery_needed": false,
		"amount_cents":    amountCents,
		"currency":        "EGP",
		"items":           []interface{}{},
	}

	var res struct {
		ID int64 `json:"id"`
	}
	if err := c.postJSON(ctx, "/ecommerce/orders", payload, &res); err != nil {
		return 0, fmt.Errorf("paymob register order: %w", err)
	}
	return res.ID, nil
}

func (c *paymobClientImpl) requestPaymentKey(ctx context.Context, authToken string, orderID, amountCents int64, billing BillingData) (string, error) {
	payload := map[string]interface{}{
		"auth_token":           authToken,
		"amount_cents":         amountCents,
		"expiration":           3600,
		"order_id":             orderID,
		"billing_data":         billing,
		"currency":             "EGP",
		"integration_id":       c.integrationID,
		"lock_order_when_paid": true,
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/acceptance/payment_keys", payload, &res); err != nil {
		return "", fmt.Errorf("paymob payment key: %w", err)
	}
	return res.Token, nil
}

// CreateSession performs the three-legged setup and returns the hosted
// payment page handle for the reconciled amount.
func (c *paymobClientImpl) CreateSession(ctx context.Context, amountCents int64, billing BillingData) (*PaymobSession, error) {
	authToken, err := c.getAuthToken(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := c.registerOrder(ctx, authToken, amountCents)
	if err != nil {
		return nil, err
	}

	paymentKey, err := c.requestPaymentKey(ctx, authToken, orderID, amountCents, billing)
	if err != nil {
		return nil, err
	}

	return &PaymobSession{
		IframeURL: fmt.Sprintf("%s/acceptance/iframes/%s?payment_token=%s", c.baseApiURL, c.iframeID, paymentKey),
		OrderRef:  strconv.FormatInt(orderID, 10),
	}, nil
}

// VerifyCallback checks the HMAC-SHA512 signature Paymob attaches to
// transaction callbacks: the covered fields concatenated in their documented
// lexicographic order.
func (c *paymobClientImpl) VerifyCallback(txn *PaymobTransaction, receivedHMAC string) bool {
	concat := fmt.Sprintf("%d%s%s%t%t%d%d%t%t%t%t%t%t%d%d%t%s%s%s%t",
		txn.AmountCents,
		txn.CreatedAt,
		txn.Currency,
		txn.ErrorOccured,
		txn.HasParentTransaction,
		txn.ID,
		txn.IntegrationID,
		txn.Is3DSecure,
		txn.IsAuth,
		txn.IsCapture,
		txn.IsRefunded,
		txn.IsStandalonePayment,
		txn.IsVoided,
		txn.Order.ID,
		txn.Owner,
		txn.Pending,
		txn.SourceData.Pan,
		txn.SourceData.SubType,
		txn.SourceData.Type,
		txn.Success,
	)

	mac := hmac.New(sha512.New, []byte(c.hmacSecret))
	mac.Write([]byte(concat))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(receivedHMAC))
}
