package db

import (
	"fmt"
	"os"
	"strings"

	"ordercore/internal/domain/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// DB_DRIVER=mysql ならMySQL、それ以外はPostgres
func Connect() (*gorm.DB, error) {
	cfg := &gorm.Config{
		//ユニーク制約違反を gorm.ErrDuplicatedKey に変換してもらう
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	if strings.EqualFold(os.Getenv("DB_DRIVER"), "mysql") {
		dsn := os.Getenv("MYSQL_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("MYSQL_DSN is required when DB_DRIVER=mysql")
		}
		return gorm.Open(mysql.Open(dsn), cfg)
	}

	// DATABASE_URL があれば最優先で使う
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	pass := getenv("POSTGRES_PASSWORD", "postgres")
	name := getenv("POSTGRES_DB", "app")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, ssl,
	)

	return gorm.Open(postgres.Open(dsn), cfg)
}

// Migrate は注文処理で使うテーブルを作る
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Merchant{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Address{},
		&model.Cart{},
		&model.CartItem{},
		&model.Promotion{},
		&model.PromotionUsage{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderNumberSequence{},
		&model.OrderIdempotencyRecord{},
		&model.Payment{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	//Postgresは文字列比較が大文字小文字を区別するので式インデックスでも守る
	if db.Dialector.Name() == "postgres" {
		return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uq_promotions_code_upper ON promotions (UPPER(code))").Error
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
