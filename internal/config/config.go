package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"planengine/internal/nutrition"
)

// Config содержит конфигурацию приложения
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// HTTP API сервиса
	HTTPAddr string

	// Сервис генерации контента
	ContentServiceURL string
	ContentTimeout    time.Duration

	// YAML файл с политикой, перечитывается при изменении
	ConfigFile string `yaml:"-"`

	Nutrition NutritionConfig `yaml:"nutrition"`
	Quota     QuotaConfig     `yaml:"quota"`
}

// NutritionConfig - политика расчёта калорий
type NutritionConfig struct {
	CalorieFloor       int                  `yaml:"calorie_floor"`
	LifePhaseNutrition bool                 `yaml:"life_phase_nutrition"`
	Macros             nutrition.MacroSplit `yaml:"macros"`
}

// QuotaConfig - лимиты генераций
type QuotaConfig struct {
	Default        int           `yaml:"default"`
	ResetSpec      string        `yaml:"reset_spec"` // cron с секундами
	ReservationTTL time.Duration `yaml:"reservation_ttl"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "postgres",
		DBName:            "postgres",
		HTTPAddr:          ":8080",
		ContentServiceURL: "http://localhost:8090",
		ContentTimeout:    60 * time.Second,
		Nutrition: NutritionConfig{
			CalorieFloor:       nutrition.DefaultCalorieFloor,
			LifePhaseNutrition: true,
			Macros:             nutrition.DefaultMacroSplit,
		},
		Quota: QuotaConfig{
			Default:        5,
			ResetSpec:      "0 0 0 * * *",
			ReservationTTL: 10 * time.Minute,
		},
	}
}

// Load загружает конфигурацию из переменных окружения или .env файла.
// Файл CONFIG_FILE (YAML) задаёт политику, переменные окружения важнее.
func Load() (*Config, error) {
	env, err := godotenv.Read(".env")
	if err != nil {
		env = make(map[string]string)
	}

	return load(func(key string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return env[key]
	})
}

func load(getEnv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getEnv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	setString(&cfg.DBHost, getEnv("DB_HOST"))
	setString(&cfg.DBPort, getEnv("DB_PORT"))
	setString(&cfg.DBUser, getEnv("DB_USER"))
	setString(&cfg.DBPassword, getEnv("DB_PASSWORD"))
	setString(&cfg.DBName, getEnv("DB_NAME"))
	setString(&cfg.HTTPAddr, getEnv("HTTP_ADDR"))
	setString(&cfg.ContentServiceURL, getEnv("CONTENT_SERVICE_URL"))
	setString(&cfg.Quota.ResetSpec, getEnv("QUOTA_RESET_SPEC"))

	var errs []error
	errs = append(errs,
		setDuration(&cfg.ContentTimeout, "CONTENT_TIMEOUT", getEnv),
		setDuration(&cfg.Quota.ReservationTTL, "RESERVATION_TTL", getEnv),
		setInt(&cfg.Nutrition.CalorieFloor, "CALORIE_FLOOR", getEnv),
		setInt(&cfg.Quota.Default, "DEFAULT_QUOTA", getEnv),
		setBool(&cfg.Nutrition.LifePhaseNutrition, "LIFE_PHASE_NUTRITION", getEnv),
	)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile накладывает значения из YAML файла
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("разбор %s: %w", path, err)
	}
	return nil
}

// Validate проверяет значения политики
func (c *Config) Validate() error {
	if c.Nutrition.CalorieFloor < 0 {
		return fmt.Errorf("CALORIE_FLOOR не может быть отрицательным: %d", c.Nutrition.CalorieFloor)
	}
	if err := c.Nutrition.Macros.Validate(); err != nil {
		return err
	}
	if c.Quota.Default < 0 {
		return fmt.Errorf("DEFAULT_QUOTA не может быть отрицательным: %d", c.Quota.Default)
	}
	if c.Quota.ReservationTTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL должен быть положительным")
	}
	if c.ContentTimeout <= 0 {
		return fmt.Errorf("CONTENT_TIMEOUT должен быть положительным")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR не задан")
	}
	return nil
}

// ResolverConfig возвращает параметры для nutrition.Resolver
func (c *Config) ResolverConfig() nutrition.ResolverConfig {
	return nutrition.ResolverConfig{
		CalorieFloor:       c.Nutrition.CalorieFloor,
		LifePhaseNutrition: c.Nutrition.LifePhaseNutrition,
		Macros:             c.Nutrition.Macros,
	}
}

// DSN возвращает строку подключения к базе данных
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string, getEnv func(string) string) error {
	value := getEnv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается целое число, получено %q", key, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string, getEnv func(string) string) error {
	value := getEnv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается true/false, получено %q", key, value)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string, getEnv func(string) string) error {
	value := getEnv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается длительность (например 30s), получено %q", key, value)
	}
	*dst = d
	return nil
}
