package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/pkg/db"
)

// defaultAdminEmail keeps role assignment identical to existing deployments
// when ADMIN_EMAILS is not set.
const defaultAdminEmail = "shubhankarrai007@gmail.com"

type Config struct {
	Port        string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	JWTSecret   string
	AdminEmails []string
	ESURL       string
	ESUser      string
	ESPassword  string
	KafkaAddr   string
	LogLevel    string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		Port:        envDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
		ESURL:       os.Getenv("ES_URL"),
		ESUser:      os.Getenv("ES_USER"),
		ESPassword:  os.Getenv("ES_PASSWORD"),
		KafkaAddr:   os.Getenv("KAFKA_ADDRESS"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(config.AdminEmails) == 0 {
		config.AdminEmails = []string{defaultAdminEmail}
	}

	return config, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func InitDB(ctx context.Context, c *Config) (*gorm.DB, error) {
	conn, err := db.Open(ctx, c.DSN())
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := MigrateLegacyImages(conn); err != nil {
		return nil, fmt.Errorf("migrate legacy images: %w", err)
	}
	return conn, nil
}
