package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Cases CasesConfig
	Ai    AIConfig
	Keys  APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	IndexWarmTopic     string
}

type CasesConfig struct {
	ConfigPath        string
	DataDir           string
	DefaultHistoryDoc string
	DefaultExamDoc    string
	DefaultDiagnosis  string
}

type AIConfig struct {
	EmbeddingProvider string // "openai" or "ollama"
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string // e.g. "gpt-4o-mini", "llama3"
	EmbeddingModel    string // e.g. "text-embedding-3-small", "nomic-embed-text"
	OllamaBaseURL     string
}

type APIKeys struct {
	OpenAI      string
	EntrezEmail string
	EntrezTool  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			IndexWarmTopic:     getEnv("INDEX_WARM_TOPIC_NAME", "WARM_CASE_INDEX"),
		},
		Cases: CasesConfig{
			ConfigPath:        getEnv("CASES_CONFIG", "./data/cases.json"),
			DataDir:           getEnv("CASES_DATA_DIR", "./data"),
			DefaultHistoryDoc: getEnv("CASE_HISTORY_DOC", "./data/case_history.txt"),
			DefaultExamDoc:    getEnv("CASE_EXAM_DOC", "./data/case_exam.txt"),
			DefaultDiagnosis:  getEnv("ASSIGNED_DIAGNOSIS", "Pneumonia"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Keys: APIKeys{
			OpenAI:      getEnv("OPENAI_API_KEY", ""),
			EntrezEmail: getEnv("ENTREZ_EMAIL", "you@example.com"),
			EntrezTool:  getEnv("ENTREZ_TOOL", "resident-sim-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
