// Управление конфигурацией приложения из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Валидация обязательных переменных.
//   - Преобразование типов данных из переменных окружения (string, int, bool).
//   - Маскировка секретных значений (passwords) в логах.
//   - Обработка ошибок при парсинге URL.
package config

import (
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
)

type Config struct {
	SecretKey string `env:"SECRET_KEY"`

	DatabaseDSN string `env:"DATABASE_URL"`

	// Tenant primary domain. Host part is the only allowed host for
	// attachment URLs inside rich content.
	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioSSL       bool   `env:"MINIO_SSL"`

	LocalStoragePath string `env:"LOCAL_STORAGE_PATH"`

	// Закрытый сайт: материалы не публикуются наружу, публичный
	// уровень доступа недоступен.
	SiteClosed bool `env:"SITE_CLOSED"`

	VirusScanDisabled bool `env:"VIRUS_SCAN_DISABLED"`

	AttachmentMaxSizeMB int `env:"ATTACHMENT_MAX_SIZE_MB"`

	OrphanSweepSchedule string `env:"ORPHAN_SWEEP_SCHEDULE"`

	MetricsEnable bool `env:"METRICS"`
}

// TenantDomain возвращает хост основного домена тенанта.
func (c *Config) TenantDomain() string {
	if c.WebURL == nil {
		return ""
	}
	return c.WebURL.Hostname()
}

// ReadConfig загружает конфигурацию приложения из переменных окружения и выполняет валидацию. Если WEB_URL не задан или некорректен, приложение завершает работу с ошибкой. Секретные значения маскируются в логах, для части параметров устанавливаются значения по умолчанию.
func ReadConfig() *Config {
	config := &Config{}

	envConfig("env", config)

	// Check required envs
	if config.WebURLRaw == "" {
		slog.Error("WEB_URL is required")
		os.Exit(1)
	} else {
		var err error
		config.WebURL, err = url.Parse(config.WebURLRaw)
		if err != nil {
			slog.Error("WEB_URL incorrect", "err", err)
			os.Exit(1)
		}
	}

	if config.AttachmentMaxSizeMB <= 0 {
		config.AttachmentMaxSizeMB = 100
	}

	if config.OrphanSweepSchedule == "" {
		config.OrphanSweepSchedule = "@hourly"
	}

	return config
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)
		if logValue == "" {
			continue
		}

		// Secure passwords in log
		if strings.Contains(strings.ToLower(fName), "pass") || strings.Contains(strings.ToLower(fName), "secret") || strings.Contains(strings.ToLower(fName), "token") {
			pass := strings.Split(GetEnv(fEnvTag), "")
			logValue = pass[0]
			for i := 1; i < len(pass)-1; i++ {
				logValue += "*"
			}
			logValue += pass[len(pass)-1]
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}
