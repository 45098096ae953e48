package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// SMTP Configuration
	SMTP_HOST     string
	SMTP_PORT     int
	SMTP_USERNAME string
	SMTP_PASSWORD string
	SMTP_FROM     string
	APP_URL       string
	// Upstream AI provider. Loaded once at startup, never mutated.
	AI_API_KEY string
	AI_API_URL string
	AI_MODEL   string
}

var (
	env     *EnvironmentVariable
	envOnce sync.Once
)

// Get returns the process-wide configuration. The environment is read exactly
// once; later calls return the same snapshot.
func Get() (*EnvironmentVariable, error) {
	envOnce.Do(func() {
		env = load()
	})
	return env, nil
}

func load() *EnvironmentVariable {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	aiURL := os.Getenv("AI_API_URL")
	if aiURL == "" {
		aiURL = "https://openrouter.ai/api/v1/chat/completions"
	}

	aiModel := os.Getenv("AI_MODEL")
	if aiModel == "" {
		aiModel = "deepseek/deepseek-chat-v3-0324"
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	return &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// SMTP
		SMTP_HOST:     os.Getenv("SMTP_HOST"),
		SMTP_PORT:     smtpPort,
		SMTP_USERNAME: os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		SMTP_FROM:     os.Getenv("SMTP_FROM"),
		APP_URL:       appURL,
		// AI provider
		AI_API_KEY: os.Getenv("AI_API_KEY"),
		AI_API_URL: aiURL,
		AI_MODEL:   aiModel,
	}
}
