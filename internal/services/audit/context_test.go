package audit

import (
	"context"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"set", WithClientIP(context.Background(), "10.0.0.7"), "10.0.0.7"},
		{"trimmed", WithClientIP(context.Background(), " 10.0.0.8 "), "10.0.0.8"},
		{"blank keeps parent", WithClientIP(WithClientIP(context.Background(), "10.0.0.9"), "  "), "10.0.0.9"},
		{"absent", context.Background(), ""},
		{"nil context", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientIPFromContext(tc.ctx); got != tc.want {
				t.Fatalf("ClientIPFromContext=%q want %q", got, tc.want)
			}
		})
	}
}
