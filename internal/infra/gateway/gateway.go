package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 通信失敗（タイムアウト・5xx）。未払いとは区別する
var ErrTransient = errors.New("payment gateway unavailable")

type Config struct {
	BaseURL     string
	APIKey      string
	MerchantID  string
	AccountNo   string
	Currency    string
	SuccessCode string
	Timeout     time.Duration
	Expiry      time.Duration
}

// QR生成結果
type Generated struct {
	QRPayload   string
	ContentHash string
	ExpiresAt   time.Time
}

// 照会結果。Paid=falseは「まだ支払われていない」
type Status struct {
	Paid          bool
	ResponseCode  string
	TransactionID string
	PaidAt        time.Time
	RawResponse   string
}

// ゲートウェイの照会レスポンス
type statusResponse struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	Data            *struct {
		TransactionID string `json:"transactionId"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
		PaidAt        int64  `json:"paidAt"` // unix millis
	} `json:"data"`
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.SuccessCode == "" {
		cfg.SuccessCode = "00"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

// Generateは注文金額と加盟店情報を埋め込んだQRペイロードを作る。
// nonceを入れているので同じ注文でも毎回ハッシュは変わる
func (c *Client) Generate(orderNumber string, amount decimal.Decimal) (Generated, error) {
	if orderNumber == "" {
		return Generated{}, fmt.Errorf("order number is required")
	}
	if amount.IsNegative() {
		return Generated{}, fmt.Errorf("amount must not be negative")
	}

	fields := []string{
		"v=1",
		"merchant=" + c.cfg.MerchantID,
		"account=" + c.cfg.AccountNo,
		"ref=" + orderNumber,
		"amount=" + amount.StringFixed(2),
		"currency=" + c.cfg.Currency,
		"nonce=" + uuid.NewString(),
	}
	payload := strings.Join(fields, "|")

	sum := sha256.Sum256([]byte(payload))
	return Generated{
		QRPayload:   payload,
		ContentHash: hex.EncodeToString(sum[:]),
		ExpiresAt:   c.now().Add(c.cfg.Expiry),
	}, nil
}

// CheckStatusはcontent hashで取引を照会する
func (c *Client) CheckStatus(ctx context.Context, contentHash string) (Status, error) {
	url := fmt.Sprintf("%s/transactions/%s", c.cfg.BaseURL, contentHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Status{}, fmt.Errorf("%w: read body: %v", ErrTransient, err)
	}
	if resp.StatusCode >= 500 {
		return Status{}, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}
	// 404は未登録＝まだ支払われていない
	if resp.StatusCode == http.StatusNotFound {
		return Status{RawResponse: string(body)}, nil
	}
	if resp.StatusCode >= 400 {
		return Status{}, fmt.Errorf("gateway rejected request: status %d", resp.StatusCode)
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Status{}, fmt.Errorf("%w: decode: %v", ErrTransient, err)
	}

	st := Status{
		ResponseCode: sr.ResponseCode,
		RawResponse:  string(body),
	}
	if sr.ResponseCode != c.cfg.SuccessCode || sr.Data == nil {
		return st, nil
	}

	st.Paid = true
	st.TransactionID = sr.Data.TransactionID
	st.PaidAt = c.now()
	if sr.Data.PaidAt > 0 {
		st.PaidAt = time.UnixMilli(sr.Data.PaidAt)
	}
	return st, nil
}
