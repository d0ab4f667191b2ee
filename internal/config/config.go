package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	ServiceName  string
	LogLevel     string

	TelegramToken string
	AdminIDs      []int64
	AdminContact  string

	MidtransServerKey    string
	MidtransClientKey    string
	MidtransIsProduction bool
	MidtransTimeout      time.Duration

	// URL publik tempat Midtrans mengirim notifikasi (tanpa path).
	WebhookURL string
}

// Load membaca konfigurasi dari env. Secret sengaja tidak punya default,
// panggil Validate sebelum dipakai untuk proses utama.
func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":"+getenv("PORT", "8000")),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:  getenv("SERVICE_NAME", "qris-orderbot"),
		LogLevel:     getenv("LOG_LEVEL", "info"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminIDs:      parseIDs(os.Getenv("ADMIN_IDS")),
		AdminContact:  getenv("ADMIN_CONTACT", "@youradmin"),

		MidtransServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:    os.Getenv("MIDTRANS_CLIENT_KEY"),
		MidtransIsProduction: strings.EqualFold(os.Getenv("MIDTRANS_IS_PRODUCTION"), "true"),
		MidtransTimeout:      getDuration("MIDTRANS_TIMEOUT", 15*time.Second),

		WebhookURL: strings.TrimRight(os.Getenv("WEBHOOK_URL"), "/"),
	}
}

var ErrMissing = errors.New("missing required config")

func (c Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.MidtransServerKey == "" {
		missing = append(missing, "MIDTRANS_SERVER_KEY")
	}
	if c.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseIDs: id yang tidak valid dibuang, bukan error, supaya typo satu id
// tidak mematikan bot.
func parseIDs(s string) []int64 {
	var out []int64
	for _, p := range splitCSV(s) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
