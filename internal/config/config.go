package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Planner  PlannerConfig
	Parser   ParserConfig
	Cache    CacheConfig
	Vault    VaultConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type PlannerConfig struct {
	OverLimitBufferCents int64
	ReporterTargetCents  int64
	ReporterTriggerCents int64
	AvalancheFloorCents  int64
	PayByLeadDays        int
	PreferredIssuerKinds []string
	RateLimitPerMinute   int
	RateLimitBurst       int
}

type ParserConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
}

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	PlanTTL  time.Duration
}

type VaultConfig struct {
	Passcode string
}

type AdminConfig struct {
	Emails []string
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "planner"),
		Password:        getEnv("DB_PASSWORD", "planner"),
		Name:            getEnv("DB_NAME", "payment_planner"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return cfg, err
	}

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return cfg, err
	}

	rateLimitPerMinute, err := parseIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return cfg, err
	}

	rateLimitBurst, err := parseIntEnv("AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "payment-planner"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		RateLimitPerMinute: rateLimitPerMinute,
		RateLimitBurst:     rateLimitBurst,
	}

	overLimitBuffer, err := parseCentsEnv("PLANNER_OVERLIMIT_BUFFER_CENTS", 1000)
	if err != nil {
		return cfg, err
	}

	reporterTarget, err := parseCentsEnv("PLANNER_REPORTER_TARGET_CENTS", 3000)
	if err != nil {
		return cfg, err
	}

	reporterTrigger, err := parseCentsEnv("PLANNER_REPORTER_TRIGGER_CENTS", 5000)
	if err != nil {
		return cfg, err
	}

	avalancheFloor, err := parseCentsEnv("PLANNER_AVALANCHE_FLOOR_CENTS", 1000)
	if err != nil {
		return cfg, err
	}

	payByLeadDays, err := parseIntEnv("PLANNER_PAYBY_LEAD_DAYS", 5)
	if err != nil {
		return cfg, err
	}

	plannerRateLimitPerMinute, err := parseIntEnv("PLANNER_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return cfg, err
	}

	plannerRateLimitBurst, err := parseIntEnv("PLANNER_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	preferredIssuers := parseIssuersEnv("PLANNER_PREFERRED_ISSUERS")
	if len(preferredIssuers) == 0 {
		preferredIssuers = []string{"CHASE", "CAPITALONE", "APPLE"}
	}

	cfg.Planner = PlannerConfig{
		OverLimitBufferCents: overLimitBuffer,
		ReporterTargetCents:  reporterTarget,
		ReporterTriggerCents: reporterTrigger,
		AvalancheFloorCents:  avalancheFloor,
		PayByLeadDays:        payByLeadDays,
		PreferredIssuerKinds: preferredIssuers,
		RateLimitPerMinute:   plannerRateLimitPerMinute,
		RateLimitBurst:       plannerRateLimitBurst,
	}

	parserTimeout, err := parseDurationEnv("PARSER_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	parserMaxTokens, err := parseIntEnv("PARSER_MAX_OUTPUT_TOKENS", 4096)
	if err != nil {
		return cfg, err
	}

	parserAPIKey := getEnv("PARSER_API_KEY", "")
	if parserAPIKey == "" {
		parserAPIKey = getEnv("OPENAI_API_KEY", "")
	}

	cfg.Parser = ParserConfig{
		APIKey:          parserAPIKey,
		BaseURL:         getEnv("PARSER_BASE_URL", "https://api.openai.com/v1"),
		Model:           getEnv("PARSER_MODEL", "gpt-4-1106-preview"),
		Timeout:         parserTimeout,
		MaxOutputTokens: parserMaxTokens,
	}

	cacheDB, err := parseIntEnv("REDIS_DB", 1)
	if err != nil {
		return cfg, err
	}

	planTTL, err := parseDurationEnv("PLAN_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Cache = CacheConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       cacheDB,
		PlanTTL:  planTTL,
	}

	cfg.Vault = VaultConfig{
		Passcode: getEnv("VAULT_PASSCODE", ""),
	}

	cfg.Admin = AdminConfig{
		Emails: parseCSVEnv("ADMIN_EMAILS"),
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be greater than 0")
	}

	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("JWT_REFRESH_TTL must be greater than 0")
	}

	if c.Auth.RateLimitPerMinute <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must be greater than 0")
	}

	if c.Auth.RateLimitBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_BURST must be greater than 0")
	}

	if c.Planner.RateLimitPerMinute <= 0 {
		return fmt.Errorf("PLANNER_RATE_LIMIT_PER_MINUTE must be greater than 0")
	}

	if c.Planner.RateLimitBurst <= 0 {
		return fmt.Errorf("PLANNER_RATE_LIMIT_BURST must be greater than 0")
	}

	if c.Parser.MaxOutputTokens <= 0 {
		return fmt.Errorf("PARSER_MAX_OUTPUT_TOKENS must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseCentsEnv(key string, fallback int64) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer amount of cents: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// parseIssuersEnv разбирает список банков; идентификаторы приводятся к верхнему регистру.
func parseIssuersEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToUpper(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
