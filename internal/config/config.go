package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ordercore/internal/domain/pricing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DBDriver string // postgres / mysql

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod

	Currency      string        // 決済通貨（USD）
	PaymentExpiry time.Duration // QR決済の有効期限

	Pricing pricing.Config
	Gateway GatewayConfig
	Kafka   KafkaConfig

	VerifyRateLimit float64 // /payments/verify の1ユーザーあたり req/s
}

// 決済ゲートウェイ
type GatewayConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MerchantID  string // QRに埋め込む加盟店ID
	AccountNo   string // 入金先口座
	SuccessCode string // 支払い済みを表すレスポンスコード
}

// Brokersが空ならイベント送信しない
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// pricing.yaml の形
type pricingFile struct {
	VATRate  string `yaml:"vat_rate"`
	Delivery struct {
		BaseFee   string `yaml:"base_fee"`
		Tier2Rate string `yaml:"tier2_rate"`
		Tier3Base string `yaml:"tier3_base"`
		Tier3Rate string `yaml:"tier3_rate"`
	} `yaml:"delivery"`
}

// Loadは環境変数から。PRICING_CONFIG_FILEがあれば料金設定をそこから読み、環境変数で上書きする
func Load() (Config, error) {
	cfg := Config{
		Port:      os.Getenv("PORT"),
		DBDriver:  getenv("DB_DRIVER", "postgres"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     getenv("GO_ENV", "dev"),
		Currency:  getenv("CURRENCY", "USD"),
		Pricing:   pricing.DefaultConfig(),
		Gateway: GatewayConfig{
			BaseURL:     strings.TrimRight(os.Getenv("GATEWAY_BASE_URL"), "/"),
			APIKey:      os.Getenv("GATEWAY_API_KEY"),
			MerchantID:  os.Getenv("GATEWAY_MERCHANT_ID"),
			AccountNo:   os.Getenv("GATEWAY_ACCOUNT_NO"),
			SuccessCode: getenv("GATEWAY_SUCCESS_CODE", "00"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_ORDER_TOPIC", "order-events"),
		},
	}

	var err error
	if cfg.PaymentExpiry, err = durationEnv("PAYMENT_EXPIRY", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Gateway.Timeout, err = durationEnv("GATEWAY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VerifyRateLimit, err = floatEnv("VERIFY_RATE_LIMIT", 1); err != nil {
		return Config{}, err
	}

	if path := os.Getenv("PRICING_CONFIG_FILE"); path != "" {
		if err := loadPricingFile(path, &cfg.Pricing); err != nil {
			return Config{}, err
		}
	}
	if err := applyPricingEnv(&cfg.Pricing); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Gateway.BaseURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if cfg.Gateway.MerchantID == "" {
		return Config{}, fmt.Errorf("GATEWAY_MERCHANT_ID is required")
	}
	if cfg.PaymentExpiry <= 0 {
		return Config{}, fmt.Errorf("PAYMENT_EXPIRY must be positive")
	}

	return cfg, nil
}

func loadPricingFile(path string, p *pricing.Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var f pricingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"vat_rate", f.VATRate, &p.VATRate},
		{"delivery.base_fee", f.Delivery.BaseFee, &p.DeliveryBaseFee},
		{"delivery.tier2_rate", f.Delivery.Tier2Rate, &p.DeliveryTier2Rate},
		{"delivery.tier3_base", f.Delivery.Tier3Base, &p.DeliveryTier3Base},
		{"delivery.tier3_rate", f.Delivery.Tier3Rate, &p.DeliveryTier3Rate},
	}
	for _, fl := range fields {
		if fl.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(fl.raw)
		if err != nil {
			return fmt.Errorf("%s must be decimal: %w", fl.name, err)
		}
		*fl.dst = d
	}
	return nil
}

func applyPricingEnv(p *pricing.Config) error {
	envs := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"VAT_RATE", &p.VATRate},
		{"DELIVERY_BASE_FEE", &p.DeliveryBaseFee},
		{"DELIVERY_TIER2_RATE", &p.DeliveryTier2Rate},
		{"DELIVERY_TIER3_BASE", &p.DeliveryTier3Base},
		{"DELIVERY_TIER3_RATE", &p.DeliveryTier3Rate},
	}
	for _, e := range envs {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%s must be decimal: %w", e.key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", e.key)
		}
		*e.dst = d
	}
	return nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
