package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTExpiry        int // in hours
	MongoURI         string
	MongoDB          string
	LogLevel         string
	HistoryLimit     int
	MaxMessageLength int
}

func Load() Config {
	port := getEnv("PORT", "8081")
	secret := getEnv("JWT_SECRET", "dev-super-secret-change-me")
	jwtExpiry := getEnvAsInt("JWT_EXPIRY", 24)
	mongoURI := getEnv("MONGO_URI", "")
	mongoDB := getEnv("MONGO_DB", "chatapp")
	logLevel := getEnv("LOG_LEVEL", "info")
	historyLimit := getEnvAsInt("HISTORY_LIMIT", 50)
	maxMsgLen := getEnvAsInt("MAX_MESSAGE_LENGTH", 1000)

	return Config{
		Port:             port,
		JWTSecret:        secret,
		JWTExpiry:        jwtExpiry,
		MongoURI:         mongoURI,
		MongoDB:          mongoDB,
		LogLevel:         logLevel,
		HistoryLimit:     historyLimit,
		MaxMessageLength: maxMsgLen,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
