package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	DBPath       string
	HistoryCap   int
	LogToConsole bool

	// Expo push delivery
	PushEndpoint string

	// SMTP delivery for alarm e-mails
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Optional MQTT telemetry bridge
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string

	// Optional Kafka telemetry consumer
	KafkaEnabled  bool
	KafkaBrokers  string
	KafkaTopic    string
	ConsumerGroup string
}

func LoadConfig() *Config {
	err := godotenv.Load() // Looks for ".env" in the current directory
	if err != nil {
		log.Println("No .env file found, using environment variables or default values")
	}

	return &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":4000"),
		DBPath:       getEnv("DB_PATH", "smartguard.db"),
		HistoryCap:   getEnvInt("HISTORY_CAP", 100),
		LogToConsole: strings.EqualFold(getEnv("LOG_TO_CONSOLE", "false"), "true"),

		PushEndpoint: getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", "alerts@smartguard.local"),

		MQTTEnabled:  strings.EqualFold(getEnv("MQTT_ENABLED", "false"), "true"),
		MQTTBroker:   getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "smartguard_monitor"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "smartguard/telemetry"),

		KafkaEnabled:  strings.EqualFold(getEnv("KAFKA_ENABLED", "false"), "true"),
		KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "wearable-telemetry-topic"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "smartguard_monitor"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, fallback)
	}
	return fallback
}
