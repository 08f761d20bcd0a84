package endpoint

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{name: "default openai", policy: OpenAI},
		{name: "default assemblyai", policy: AssemblyAI},
		{name: "eu assemblyai", policy: AssemblyAI, baseURL: "https://api.eu.assemblyai.com/"},
		{name: "reject non-absolute URL", policy: OpenAI, baseURL: "api.openai.com", wantErr: true},
		{name: "reject http", policy: OpenAI, baseURL: "http://api.openai.com/v1", wantErr: true},
		{name: "reject unknown host", policy: OpenAI, baseURL: "https://evil.example/v1", wantErr: true},
		{name: "reject other provider host", policy: OpenAI, baseURL: "https://api.assemblyai.com", wantErr: true},
		{name: "allow configured host", policy: OpenAI, baseURL: "https://proxy.internal/v1", allowedHosts: []string{"https://proxy.internal:8443/"}},
		{name: "reject userinfo", policy: OpenAI, baseURL: "https://u:p@api.openai.com/v1", wantErr: true},
		{name: "reject query", policy: AssemblyAI, baseURL: "https://api.assemblyai.com?x=1", wantErr: true},
		{name: "reject fragment", policy: AssemblyAI, baseURL: "https://api.assemblyai.com#f", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), tt.policy.Setting) {
				t.Fatalf("error should name the setting: %v", err)
			}
		})
	}
}

func TestAllowedHosts_DefaultWhenBlank(t *testing.T) {
	out := OpenAI.allowedHosts([]string{" ", "https://", "http://"})
	if _, ok := out["api.openai.com"]; !ok || len(out) != 1 {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
}

func TestSplitHosts(t *testing.T) {
	got := SplitHosts(" a.example, ,b.example ")
	if len(got) != 2 || got[0] != "a.example" || got[1] != "b.example" {
		t.Fatalf("SplitHosts = %v", got)
	}
}

func TestRedact(t *testing.T) {
	in := `{"error":"bad key sk-abcdef1234567890"} Authorization: Bearer tok.en-1 api_key=xyz secret-123`
	got := Redact(in, "secret-123")
	for _, leak := range []string{"sk-abcdef1234567890", "tok.en-1", "xyz", "secret-123"} {
		if strings.Contains(got, leak) {
			t.Fatalf("expected %q to be redacted, got: %q", leak, got)
		}
	}
}

func TestDetail_Bounded(t *testing.T) {
	d := Detail(strings.Repeat("é", MaxDetail*2))
	if n := len([]rune(d)); n != MaxDetail {
		t.Fatalf("expected %d runes, got %d", MaxDetail, n)
	}
}
