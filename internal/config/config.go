package config

import (
	"os"
	"strconv"
	"time"
)

// ScoringWeights holds the ranking constants. The original values looked
// ad hoc, so they are tunables with the historical defaults rather than
// hardcoded law.
type ScoringWeights struct {
	CategoryWeight   float64 // combined score: category match share
	ReputationWeight float64 // combined score: reputation share
	TeamWeight       float64 // team blend: team match share
	CompanyWeight    float64 // team blend: company match share
	FinalMatchShare  float64 // final key: combined score share
	FinalRepShare    float64 // final key: reputation share
	TieEpsilon       float64 // scores closer than this fall back to rating count
}

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	RabbitUser string
	RabbitPass string
	RabbitHost string
	RabbitPort string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	OfferTTL      time.Duration // how long a provider holds an offer
	SweepInterval time.Duration // expiry sweeper tick
	MaxDeclines   int           // declines+expiries before the lead is expired
	QueueLimit    int           // default ranked candidates per queue

	Weights ScoringWeights
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		RabbitUser: getEnv("RABBITMQ_USER", "guest"),
		RabbitPass: getEnv("RABBITMQ_PASS", "guest"),
		RabbitHost: getEnv("RABBITMQ_HOST", "localhost"),
		RabbitPort: getEnv("RABBITMQ_PORT", "5672"),

		MailHost: getEnv("MAIL_HOST", ""),
		MailPort: getInt("MAIL_PORT", 587),
		MailUser: getEnv("MAIL_USER", ""),
		MailPass: getEnv("MAIL_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "no-reply@uslugar.hr"),

		OfferTTL:      getDuration("OFFER_TTL", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Hour),
		MaxDeclines:   getInt("MAX_DECLINES", 3),
		QueueLimit:    getInt("QUEUE_LIMIT", 5),

		Weights: ScoringWeights{
			CategoryWeight:   getFloat("SCORE_CATEGORY_WEIGHT", 0.6),
			ReputationWeight: getFloat("SCORE_REPUTATION_WEIGHT", 0.4),
			TeamWeight:       getFloat("SCORE_TEAM_WEIGHT", 0.6),
			CompanyWeight:    getFloat("SCORE_COMPANY_WEIGHT", 0.4),
			FinalMatchShare:  getFloat("SCORE_FINAL_MATCH_SHARE", 0.5),
			FinalRepShare:    getFloat("SCORE_FINAL_REP_SHARE", 0.5),
			TieEpsilon:       getFloat("SCORE_TIE_EPSILON", 0.01),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
