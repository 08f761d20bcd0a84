// Package endpoint validates cloud provider base URLs and scrubs provider
// responses before they reach logs.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Policy describes where one provider may be reached.
type Policy struct {
	// Setting names the configuration key in error messages.
	Setting      string
	DefaultURL   string
	DefaultHosts []string
}

var (
	AssemblyAI = Policy{
		Setting:      "ASSEMBLYAI_BASE_URL",
		DefaultURL:   "https://api.assemblyai.com",
		DefaultHosts: []string{"api.assemblyai.com", "api.eu.assemblyai.com"},
	}
	OpenAI = Policy{
		Setting:      "OPENAI_BASE_URL",
		DefaultURL:   "https://api.openai.com/v1",
		DefaultHosts: []string{"api.openai.com"},
	}
)

// Normalize trims baseURL and falls back to the policy default.
func (p Policy) Normalize(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = p.DefaultURL
	}
	return strings.TrimRight(baseURL, "/")
}

// Validate requires an absolute https URL without credentials, query, or
// fragment whose host is allow-listed. An empty allowedHosts uses the
// policy defaults.
func (p Policy) Validate(baseURL string, allowedHosts []string) error {
	baseURL = p.Normalize(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", p.Setting, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", p.Setting, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", p.Setting, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", p.Setting, baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", p.Setting, baseURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid %s %q: https is required", p.Setting, baseURL)
	}

	allowed := p.allowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in CAPSYNC_ALLOWED_HOSTS", p.Setting, baseURL, host)
	}
	return nil
}

func (p Policy) allowedHosts(allowedHosts []string) map[string]struct{} {
	out := normalizeHosts(allowedHosts)
	if len(out) == 0 {
		out = normalizeHosts(p.DefaultHosts)
	}
	return out
}

func normalizeHosts(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}

// SplitHosts parses a comma separated allow-list.
func SplitHosts(v string) []string {
	var out []string
	for _, h := range strings.Split(v, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
