package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Port        string `mapstructure:"PORT"`
	GRPCPort    string `mapstructure:"GRPC_PORT"`
	AppEnv      string `mapstructure:"APP_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServiceName string `mapstructure:"SERVICE_NAME"`

	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	PostgresUsername string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDatabase string `mapstructure:"POSTGRES_DATABASE"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`
	MySQLDSN         string `mapstructure:"MYSQL_DSN"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	AWSBucket        string `mapstructure:"AWS_BUCKET"`
	AWSDefaultRegion string `mapstructure:"AWS_DEFAULT_REGION"`
	AWSAccessKey     string `mapstructure:"AWS_ACCESS_KEY"`
	AWSSecretKey     string `mapstructure:"AWS_SECRET_KEY"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	RatesURL              string        `mapstructure:"RATES_URL"`
	RatesUSDPath          string        `mapstructure:"RATES_USD_PATH"`
	RatesEURPath          string        `mapstructure:"RATES_EUR_PATH"`
	RatesInvert           bool          `mapstructure:"RATES_INVERT"`
	RatesTTL              time.Duration `mapstructure:"RATES_TTL"`
	RatesTimeout          time.Duration `mapstructure:"RATES_TIMEOUT"`
	RatesFallbackUSDToGBP string        `mapstructure:"RATES_FALLBACK_USD_TO_GBP"`
	RatesFallbackEURToGBP string        `mapstructure:"RATES_FALLBACK_EUR_TO_GBP"`
}

func Read() *AppConfig {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	var appConfig AppConfig
	err := viper.Unmarshal(&appConfig)
	if err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}

	return &appConfig
}

// PostgresDSN builds the lib/pq connection string.
func (c *AppConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUsername, c.PostgresPassword, c.PostgresDatabase, c.PostgresSSLMode,
	)
}

func (c *AppConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func bindEnvVariables() {
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("GRPC_PORT")
	_ = viper.BindEnv("APP_ENV")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("SERVICE_NAME")
	_ = viper.BindEnv("STORAGE_DRIVER")
	_ = viper.BindEnv("POSTGRES_USERNAME")
	_ = viper.BindEnv("POSTGRES_PASSWORD")
	_ = viper.BindEnv("POSTGRES_DATABASE")
	_ = viper.BindEnv("POSTGRES_SSLMODE")
	_ = viper.BindEnv("POSTGRES_HOST")
	_ = viper.BindEnv("POSTGRES_PORT")
	_ = viper.BindEnv("SQLITE_PATH")
	_ = viper.BindEnv("MYSQL_DSN")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AWS_ENDPOINT")
	_ = viper.BindEnv("AWS_BUCKET")
	_ = viper.BindEnv("AWS_DEFAULT_REGION")
	_ = viper.BindEnv("AWS_ACCESS_KEY")
	_ = viper.BindEnv("AWS_SECRET_KEY")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("RATES_URL")
	_ = viper.BindEnv("RATES_USD_PATH")
	_ = viper.BindEnv("RATES_EUR_PATH")
	_ = viper.BindEnv("RATES_INVERT")
	_ = viper.BindEnv("RATES_TTL")
	_ = viper.BindEnv("RATES_TIMEOUT")
	_ = viper.BindEnv("RATES_FALLBACK_USD_TO_GBP")
	_ = viper.BindEnv("RATES_FALLBACK_EUR_TO_GBP")
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GRPC_PORT", "9090")
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVICE_NAME", "tradepost")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("SQLITE_PATH", "tradepost.db")
	viper.SetDefault("RATES_URL", "https://api.frankfurter.app/latest?from=GBP&to=USD,EUR")
	viper.SetDefault("RATES_USD_PATH", "$.rates.USD")
	viper.SetDefault("RATES_EUR_PATH", "$.rates.EUR")
	viper.SetDefault("RATES_INVERT", true)
	viper.SetDefault("RATES_TTL", "1h")
	viper.SetDefault("RATES_TIMEOUT", "5s")
	viper.SetDefault("RATES_FALLBACK_USD_TO_GBP", "0.79")
	viper.SetDefault("RATES_FALLBACK_EUR_TO_GBP", "0.85")
}
