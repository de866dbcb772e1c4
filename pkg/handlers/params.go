package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

// parseLimit reads a positive integer query parameter, clamped to max.
// A missing value yields def; a malformed one reports false.
func parseLimit(r *http.Request, name string, def, max int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, max), true
}

// topKOrDefault resolves an optional top_k: absent means the configured
// default, explicit values pass through so that zero or negative become 1.
func topKOrDefault(topK *int, def int) int {
	if topK == nil {
		return def
	}
	return *topK
}
