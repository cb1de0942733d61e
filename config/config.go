package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	RecommenderURL     string        `mapstructure:"RECOMMENDER_URL"`
	RecommenderTimeout time.Duration `mapstructure:"RECOMMENDER_TIMEOUT"`

	LogMode             string `mapstructure:"LOG_MODE"`
	RatingAuditSchedule string `mapstructure:"RATING_AUDIT_SCHEDULE"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	SeedCourses   bool   `mapstructure:"SEED_COURSES"`
}

var keys = []string{
	"PORT", "GRPC_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PATH",
	"REDIS_ADDR",
	"JWT_SECRET", "TOKEN_TTL",
	"ALLOWED_ORIGINS",
	"RECOMMENDER_URL", "RECOMMENDER_TIMEOUT",
	"LOG_MODE", "RATING_AUDIT_SCHEDULE",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "SEED_COURSES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "learnplatform")
	v.SetDefault("DB_PATH", "learnplatform.db")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RECOMMENDER_URL", "http://localhost:8000")
	v.SetDefault("RECOMMENDER_TIMEOUT", 3*time.Second)
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("RATING_AUDIT_SCHEDULE", "0 3 * * *")
	v.SetDefault("SEED_COURSES", false)
}

// LoadConfig reads app.env from path when present, then lets the environment override it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	setDefaults(v)
	v.AutomaticEnv()

	// bound explicitly so Unmarshal sees variables that are not in the file
	for _, k := range keys {
		if err = v.BindEnv(k); err != nil {
			return
		}
	}

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
