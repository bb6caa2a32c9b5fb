package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/stayloop/service-booking/internal/platform/database"
)

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the address used for sweep lease locks.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds the token signing secret.
type JWTConfig struct {
	Secret string
}

// CommissionTier is one step of the default commission schedule, applied when a
// property has no valid rate of its own.
type CommissionTier struct {
	UpTo    int64 // pre-tax amount threshold, 0 = no upper bound
	Percent int
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DBConfig    database.PostgresConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
	JWTConfig   JWTConfig

	Currency           string
	TaxRatePercent     int
	CommissionMin      int
	CommissionMax      int
	CommissionTiers    []CommissionTier
	GraceDays          int
	LatePenaltyPercent int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8083")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "stayloop-")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CURRENCY", "TZS")
	v.SetDefault("TAX_RATE_PERCENT", 3)
	v.SetDefault("COMMISSION_MIN_PERCENT", 5)
	v.SetDefault("COMMISSION_MAX_PERCENT", 25)
	v.SetDefault("GRACE_DAYS", 15)
	v.SetDefault("LATE_PENALTY_PERCENT", 2)

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWTConfig: JWTConfig{Secret: v.GetString("JWT_SECRET")},

		Currency:       v.GetString("CURRENCY"),
		TaxRatePercent: v.GetInt("TAX_RATE_PERCENT"),
		CommissionMin:  v.GetInt("COMMISSION_MIN_PERCENT"),
		CommissionMax:  v.GetInt("COMMISSION_MAX_PERCENT"),
		CommissionTiers: []CommissionTier{
			{UpTo: 100_000, Percent: 10},
			{UpTo: 500_000, Percent: 12},
			{UpTo: 0, Percent: 15},
		},
		GraceDays:          v.GetInt("GRACE_DAYS"),
		LatePenaltyPercent: v.GetInt("LATE_PENALTY_PERCENT"),
	}, nil
}
