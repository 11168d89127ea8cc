package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/settlements/01JX3YCFQK", "/api/v1/settlements/:id"},
		{"/api/v1/settlements/", "/api/v1/settlements/"},
		{"/api/v1/settlements", "/api/v1/settlements"},
		{"/api/v1/retailers/ret-1/balance", "/api/v1/retailers/:id/balance"},
		{"/api/v1/retailers/ret-1/unfreeze", "/api/v1/retailers/:id/unfreeze"},
		{"/api/v1/ledger/revenue", "/api/v1/ledger/revenue"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
