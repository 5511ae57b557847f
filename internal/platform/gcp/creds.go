package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv reads GOOGLE_APPLICATION_CREDENTIALS_JSON (inline JSON)
// or GOOGLE_APPLICATION_CREDENTIALS (inline JSON or a file path).
// It returns nil when neither is set so the client falls back to ADC.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func hasCredentialsEnv() bool {
	return strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")) != "" ||
		strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != ""
}
