package server

import (
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "listed origin", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "case-insensitive", allowed: []string{"http://LOCALHOST:8080"}, origin: "http://localhost:8080", want: true},
		{name: "path is ignored", allowed: []string{"http://localhost:8080/chat"}, origin: "http://localhost:8080", want: true},
		{name: "unlisted origin", allowed: []string{"http://localhost:8080"}, origin: "http://evil.example", want: false},
		{name: "missing origin", allowed: []string{"http://localhost:8080"}, origin: "", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anything.example", want: true},
		{name: "wildcard without origin header", allowed: []string{"*"}, origin: "", want: true},
		{name: "invalid entries are skipped", allowed: []string{"not a url", " "}, origin: "http://localhost:8080", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(tt.allowed)
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := policy.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
