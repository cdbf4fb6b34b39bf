package generator

import (
	"strings"
	"testing"
)

func TestValidHostname(t *testing.T) {
	tests := []struct {
		name string
		host string
		want bool
	}{
		{"simple", "api", true},
		{"with dash", "api-gateway", true},
		{"with underscore", "my_service_1", true},
		{"dotted", "api.internal", true},
		{"digits", "123", true},
		{"empty", "", false},
		{"space", "bad host", false},
		{"leading dash", "-api", false},
		{"trailing dash", "api-", false},
		{"empty label", "api..internal", false},
		{"trailing dot", "api.", false},
		{"semicolon", "api;", false},
		{"brace", "api{", false},
		{"label too long", strings.Repeat("a", 64), false},
		{"label at limit", strings.Repeat("a", 63), true},
		{"too long", strings.Repeat("abcdefghi.", 25) + "abcd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidHostname(tt.host); got != tt.want {
				t.Errorf("ValidHostname(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestParseValidationMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ValidationMode
		wantErr bool
	}{
		{"", ValidationSkip, false},
		{"skip", ValidationSkip, false},
		{"OFF", ValidationOff, false},
		{" reject ", ValidationReject, false},
		{"strict", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseValidationMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValidationMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseValidationMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	if got := Render(nil, 80, 80); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}

	block := RenderBlock("api", 80, 80)
	for _, want := range []string{
		"listen 80;",
		"server_name api;",
		"access_log off;",
		"proxy_pass http://api:80;",
		"proxy_set_header X-Real-IP $remote_addr;",
		"proxy_set_header Host $host;",
		"proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}

	two := Render([]string{"a", "b"}, 80, 80)
	if strings.Count(two, BlockSeparator+"server {") != 1 {
		t.Errorf("blocks not joined by a blank line:\n%s", two)
	}
}
