package futurecash

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// .env (если есть) + логгер. FUTURECASH_ENV=production - JSON логгер.
func Init() (*zap.Logger, error) {
	envErr := godotenv.Load()

	var logger *zap.Logger
	var err error
	if os.Getenv("FUTURECASH_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug(".env is not loaded", zap.Error(envErr))
	}
	return logger, nil
}
