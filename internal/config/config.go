package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"

	AuthGoogle = "google"
	AuthStatic = "static"
)

type Config struct {
	AppPort           string
	TaskStore         string
	MongoURI          string
	MongoDatabase     string
	MongoCollection   string
	DbHost            string
	DbPort            string
	DbUser            string
	DbPassword        string
	DbName            string
	DbParams          string
	SqlitePath        string
	AuthMode          string
	GoogleClientID    string
	StaticTokens      map[string]StaticIdentity
	TrustedProxies    []string
	TranslationFolder string
}

// StaticIdentity is a pre-shared bearer token entry, for local development.
type StaticIdentity struct {
	Subject string
	Email   string
}

func LoadConfig() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		TaskStore:         strings.ToLower(getEnv("TASK_STORE", StoreMongo)),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "achieveai"),
		MongoCollection:   getEnv("MONGODB_COLLECTION", "tasks"),
		DbHost:            getEnv("MYSQL_HOST", "db"),
		DbPort:            getEnv("MYSQL_PORT", "3306"),
		DbUser:            getEnv("MYSQL_USER", "achieveai"),
		DbPassword:        getEnv("MYSQL_PASSWORD", "achieveai"),
		DbName:            getEnv("MYSQL_DATABASE", "achieveai"),
		DbParams:          getEnv("MYSQL_PARAMS", "parseTime=true&multiStatements=true"),
		SqlitePath:        getEnv("SQLITE_PATH", "achieveai.db"),
		AuthMode:          strings.ToLower(getEnv("AUTH_MODE", AuthGoogle)),
		GoogleClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
		StaticTokens:      parseStaticTokens(os.Getenv("AUTH_STATIC_TOKENS")),
		TrustedProxies:    parseTrustedProxies(os.Getenv("TRUSTED_PROXIES")),
		TranslationFolder: getEnv("TRANSLATION_FOLDER", "pkg/translator/translation"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseTrustedProxies(value string) []string {
	return splitList(value)
}

// parseStaticTokens reads "token=subject[:email],token2=subject2".
func parseStaticTokens(value string) map[string]StaticIdentity {
	entries := splitList(value)
	if len(entries) == 0 {
		return nil
	}

	tokens := make(map[string]StaticIdentity, len(entries))
	for _, entry := range entries {
		token, identity, ok := strings.Cut(entry, "=")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			continue
		}
		subject, email, _ := strings.Cut(identity, ":")
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		tokens[token] = StaticIdentity{Subject: subject, Email: strings.TrimSpace(email)}
	}

	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil
	}

	return items
}
