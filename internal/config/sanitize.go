package config

import (
	"net/url"
	"strings"
)

// SanitizeURL strips credentials and API-key-shaped query parameters from a
// URL before it is ever written to a log line. Scrubs Infura/Alchemy-style
// keys out of node URLs; guards WSS_URL, KAFKA_BROKER and REDIS_URL at
// startup logging.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return redactAPIKey(raw)
	}

	u.User = nil

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "key") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Path = redactAPIKey(u.Path)

	return u.String()
}

func redactAPIKey(s string) string {
	s = strings.ReplaceAll(s, "/v3/", "/v3/[REDACTED]")
	s = strings.ReplaceAll(s, "/v2/", "/v2/[REDACTED]")

	parts := strings.Split(s, "/[REDACTED]")
	if len(parts) > 1 {
		return parts[0] + "/[REDACTED]"
	}
	return s
}
