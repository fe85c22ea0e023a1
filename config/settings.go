package config

import (
	"os"
	"strings"
)

var (
	AppVersion             = "v1.0.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppBasePath            = ""
	AppTrustedProxies      []string // Trusted proxy IP ranges (e.g., "0.0.0.0/0" for all, or specific CIDRs)

	// FrontendURL is the public base of the review UI; review links are
	// FrontendURL + "/review/" + token.
	FrontendURL = "http://localhost:3000"

	PathStorages = "storages"

	DBURI = "file:storages/azpost.db?_foreign_keys=on"

	OpenAIAPIKey     string
	OpenAIChatModel  = "gpt-4o"
	OpenAIImageModel = "dall-e-3"

	LinkedInAPIBaseURL = "https://api.linkedin.com"

	SlackBotToken string

	// Executor settings
	ExecutorIntervalSeconds     = 60
	PostWorkerPoolSize      int = 4
	PostWorkerQueueSize     int = 64
)

func init() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("SLACK_BOT_TOKEN")); v != "" {
		SlackBotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("FRONTEND_URL")); v != "" {
		FrontendURL = v
	}
}
