package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func logOne(t *testing.T, args ...any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("event", args...)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRedactSensitive(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"session token value", "value", "spt_ABCDEFGHIJKLMNOP", "spt_ABC...NOP"},
		{"short session token", "value", "spt_abc", "spt_***"},
		{"bearer header", "header", "Bearer abcdefghijkl", "Bearer abc...jkl"},
		{"password key", "password", "correct", redactedValue},
		{"passphrase key", "store_passphrase", "hunter22", redactedValue},
		{"authorization key", "Authorization", "Basic xyz", redactedValue},
		{"empty sensitive value", "password", "", ""},
		{"plain value", "username", "alice", "alice"},
		{"token key with prefix masks", "token", "spt_0123456789abcdef", "spt_012...def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := logOne(t, tt.key, tt.value)
			if got := entry[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})
	l.Info("login", slog.Group("payload", "username", "alice", "password", "s3cret"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	payload, ok := entry["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want group", entry["payload"])
	}
	if payload["password"] != redactedValue {
		t.Errorf("payload.password = %v, want redacted", payload["password"])
	}
	if payload["username"] != "alice" {
		t.Errorf("payload.username = %v, want alice", payload["username"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"spt_ABCDEFGHIJ", "spt_ABC...HIJ"},
		{"opaque-token-value", "opa...lue"},
		{"short", "***"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSensitive(t *testing.T) {
	if !IsSensitiveKey("X-Auth-Token") {
		t.Error("IsSensitiveKey(X-Auth-Token) = false")
	}
	if IsSensitiveKey("supplier_id") {
		t.Error("IsSensitiveKey(supplier_id) = true")
	}
	if !IsSensitiveValue("spt_x") {
		t.Error("IsSensitiveValue(spt_x) = false")
	}
	if IsSensitiveValue("alice") {
		t.Error("IsSensitiveValue(alice) = true")
	}
}
