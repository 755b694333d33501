// Package mpesa is a client for Safaricom's Daraja API, covering the three
// calls the storefront needs: OAuth token, Lipa Na M-Pesa STK push, and the
// STK status query.
package mpesa

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/modernhardware/api/config"
	"github.com/modernhardware/api/pkg/http"
)

// Config carries the Daraja credentials and endpoints.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

// Client talks to Daraja. Safe for concurrent use.
type Client struct {
	cfg Config

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New creates a Client from an explicit Config.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{cfg: cfg}
}

// NewFromEnv creates a Client from the MPESA_* environment config.
func NewFromEnv() *Client {
	return New(Config{
		BaseURL:        config.MpesaBaseURL(),
		ConsumerKey:    config.Get("MPESA_CONSUMER_KEY", ""),
		ConsumerSecret: config.Get("MPESA_CONSUMER_SECRET", ""),
		ShortCode:      config.Get("MPESA_SHORT_CODE", "174379"),
		Passkey:        config.Get("MPESA_PASSKEY", ""),
		CallbackURL:    config.Get("MPESA_CALLBACK_URL", ""),
	})
}

// Configured reports whether the client has credentials. An unconfigured
// client lets the rest of checkout work in dev without Daraja access.
func (c *Client) Configured() bool {
	return c.cfg.ConsumerKey != "" && c.cfg.ConsumerSecret != "" && c.cfg.Passkey != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // seconds, as a string
}

// AccessToken returns a valid OAuth token, refreshing when the cached one
// is within a minute of expiry.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	resp, err := http.Get(c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials").
		Basic(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		Timeout(c.cfg.Timeout).
		WithContext(ctx).
		Send()
	if err != nil {
		return "", fmt.Errorf("mpesa: oauth: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return "", fmt.Errorf("mpesa: oauth: %w", err)
	}

	var tok tokenResponse
	if err := resp.JSON(&tok); err != nil {
		return "", fmt.Errorf("mpesa: oauth: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("mpesa: oauth: empty access token")
	}

	ttl := 3600
	if n, err := strconv.Atoi(tok.ExpiresIn); err == nil && n > 0 {
		ttl = n
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(ttl) * time.Second)
	return c.token, nil
}

// stkPushRequest is the Daraja STK push payload.
type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is Daraja's acknowledgement of a push request.
// ResponseCode "0" means the prompt was accepted for delivery.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether Daraja accepted the push for delivery.
func (r *STKPushResponse) Accepted() bool { return r.ResponseCode == "0" }

// STKPush sends a payment prompt to phone for amount whole KES, tagged with
// the given account reference.
func (c *Client) STKPush(ctx context.Context, phone string, amount int64, reference string) (*STKPushResponse, error) {
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if amount < 1 {
		amount = 1
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, time.Now())

	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerBuyGoodsOnline",
		Amount:            amount,
		PartyA:            msisdn,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       msisdn,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   "Modern Hardware Payment",
	}

	resp, err := http.Post(c.cfg.BaseURL + "/mpesa/stkpush/v1/processrequest").
		Bearer(token).
		Body(payload).
		Timeout(c.cfg.Timeout).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("mpesa: stk push: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("mpesa: stk push: %w", err)
	}

	var out STKPushResponse
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("mpesa: stk push: %w", err)
	}
	return &out, nil
}

// QueryResponse is the outcome of an STK status query.
// ResultCode "0" means the customer completed the payment.
type QueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
}

// Paid reports whether the customer completed the payment.
func (r *QueryResponse) Paid() bool { return r.ResultCode == "0" }

// Query asks Daraja for the outcome of a previously pushed prompt.
func (c *Client) Query(ctx context.Context, checkoutRequestID string) (*QueryResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, time.Now())

	resp, err := http.Post(c.cfg.BaseURL + "/mpesa/stkquery/v1/query").
		Bearer(token).
		Body(map[string]string{
			"BusinessShortCode": c.cfg.ShortCode,
			"Password":          password,
			"Timestamp":         timestamp,
			"CheckoutRequestID": checkoutRequestID,
		}).
		Timeout(c.cfg.Timeout).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("mpesa: stk query: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("mpesa: stk query: %w", err)
	}

	var out QueryResponse
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("mpesa: stk query: %w", err)
	}
	return &out, nil
}

// Password derives the Lipa Na M-Pesa password and its 14-digit timestamp
// (yyyymmddhhmmss) for the given instant.
func Password(shortcode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
	return password, timestamp
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone converts a Kenyan phone number to 254XXXXXXXXX form.
// "0712 345 678", "+254712345678" and "712345678" all normalize to
// "254712345678".
func NormalizePhone(raw string) (string, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return "", fmt.Errorf("mpesa: invalid phone number %q", raw)
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case !strings.HasPrefix(digits, "254"):
		digits = "254" + digits
	}

	if len(digits) != 12 {
		return "", fmt.Errorf("mpesa: invalid phone number %q", raw)
	}
	return digits, nil
}

// MerchantRef builds the account reference carried on an order's STK push.
func MerchantRef(orderID uint) string {
	return fmt.Sprintf("MH%d", orderID)
}

// ParseMerchantRef extracts the order ID from an account reference.
func ParseMerchantRef(ref string) (uint, error) {
	s := strings.TrimPrefix(strings.TrimSpace(ref), "MH")
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("mpesa: invalid account reference %q", ref)
	}
	return uint(id), nil
}
