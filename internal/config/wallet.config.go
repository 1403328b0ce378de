package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AppConfig struct {
	HTTPAddr  string
	RedisPass string
	RedisAddr string

	KafkaBrokers []string
	KafkaTopic   string

	ContractServiceURL string

	AnnualInterestRate decimal.Decimal
	QualifyThreshold   decimal.Decimal
	WithdrawalDays     int
	SweepHour          int
	SweepInterval      time.Duration
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8031"),
		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"kafka:9092"}),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "wallet.ledger.events"),

		ContractServiceURL: getEnv("CONTRACT_SERVICE_URL", "http://contract-service:8040"),

		AnnualInterestRate: getEnvDecimal("ANNUAL_INTEREST_RATE", "0.07"),
		QualifyThreshold:   getEnvDecimal("INTEREST_QUALIFY_THRESHOLD", "10000"),
		WithdrawalDays:     getEnvInt("WITHDRAWAL_WINDOW_DAYS", 14),
		SweepHour:          getEnvInt("ACCRUAL_SWEEP_HOUR", 0),
		SweepInterval:      getEnvDuration("ACCRUAL_SWEEP_INTERVAL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(fallback)
	return d
}
