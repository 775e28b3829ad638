package config

import (
	"os"

	"github.com/joho/godotenv"
)

func InitializeConfig() error {
	// .env is optional; real deployments pass the environment directly
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return err
		}
	}

	NewLoggerService()
	if err := LoadLedgerConfig(LedgerConfigPath()); err != nil {
		return err
	}
	if err := ConnectDatabase(); err != nil {
		return err
	}
	if err := NewCacheService(); err != nil {
		Logger.Warnf("Redis unavailable, earnings cache disabled: %v", err)
	}
	if err := ConnectNats(); err != nil {
		Logger.Warnf("NATS unavailable, ledger events disabled: %v", err)
	}

	return nil
}

func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && len(value) > 0 {
		return value
	}

	return fallback
}
