// Package mpesa wraps the Safaricom Daraja API for STK push payments. The
// reward service only depends on the Gateway interface; the Daraja client is
// the production implementation.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/campusfind/campusfind-backend/internal/config"
)

// Gateway is the payment-gateway boundary. InitiateSTKPush requests payment
// initiation only; the outcome arrives later on the callback webhook.
// QueryStatus is used by the reconciliation job for stuck payments.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResult, error)
	QueryStatus(ctx context.Context, checkoutID string) (*StatusResult, error)
}

type STKPushRequest struct {
	Amount      float64
	PhoneNumber string
	AccountRef  string
	Description string
}

type STKPushResult struct {
	CheckoutID   string
	ResponseDesc string
}

type StatusResult struct {
	// Final is false while the gateway still considers the payment in flight.
	Final      bool
	Success    bool
	ResultDesc string
}

// Client talks to the Daraja sandbox/production API.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	httpClient     *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:        cfg.MpesaBaseURL,
		consumerKey:    cfg.MpesaConsumerKey,
		consumerSecret: cfg.MpesaConsumerSecret,
		shortcode:      cfg.MpesaShortcode,
		passkey:        cfg.MpesaPasskey,
		callbackURL:    cfg.MpesaCallbackURL,
		httpClient:     &http.Client{Timeout: cfg.MpesaTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// token fetches (and caches) an OAuth access token.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tr.AccessToken
	// Daraja tokens last an hour; refresh a minute early.
	c.tokenExpiry = time.Now().Add(59 * time.Minute)
	return c.accessToken, nil
}

// password builds the Daraja STK password: base64(shortcode+passkey+timestamp).
func password(shortcode, passkey string, t time.Time) (string, string) {
	timestamp := t.Format("20060102150405")
	raw := shortcode + passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw)), timestamp
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

func (c *Client) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}

	pass, timestamp := password(c.shortcode, c.passkey, time.Now())
	payload := stkPushPayload{
		BusinessShortCode: c.shortcode,
		Password:          pass,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            int(req.Amount),
		PartyA:            req.PhoneNumber,
		PartyB:            c.shortcode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.callbackURL,
		AccountReference:  req.AccountRef,
		TransactionDesc:   req.Description,
	}

	var out stkPushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", token, payload, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		msg := out.ResponseDescription
		if msg == "" {
			msg = out.ErrorMessage
		}
		return nil, fmt.Errorf("stk push rejected: %s", msg)
	}

	return &STKPushResult{CheckoutID: out.CheckoutRequestID, ResponseDesc: out.ResponseDescription}, nil
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type stkQueryResponse struct {
	ResponseCode      string `json:"ResponseCode"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

func (c *Client) QueryStatus(ctx context.Context, checkoutID string) (*StatusResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}

	pass, timestamp := password(c.shortcode, c.passkey, time.Now())
	payload := stkQueryPayload{
		BusinessShortCode: c.shortcode,
		Password:          pass,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutID,
	}

	var out stkQueryResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", token, payload, &out); err != nil {
		return nil, err
	}

	// ResultCode is only present once the transaction has settled. An empty
	// ResultCode with ResponseCode 0 means still processing.
	if out.ResultCode == "" {
		return &StatusResult{Final: false, ResultDesc: out.ResultDesc}, nil
	}
	return &StatusResult{
		Final:      true,
		Success:    out.ResultCode == "0",
		ResultDesc: out.ResultDesc,
	}, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
