package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// clientOptions turns configured credentials into client options. Inline JSON wins over a file
// path; with neither, the client falls back to application default credentials.
func clientOptions(credentialsFile, credentialsJSON string) []option.ClientOption {
	if js := strings.TrimSpace(credentialsJSON); js != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(js))}
	}
	if f := strings.TrimSpace(credentialsFile); f != "" {
		return []option.ClientOption{option.WithCredentialsFile(f)}
	}
	return nil
}
