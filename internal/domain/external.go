package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// ExternalSourceName labels listings imported from the partner marketplace.
const ExternalSourceName = "Standvirtual"

var externalHosts = map[string]struct{}{
	"standvirtual.com":     {},
	"www.standvirtual.com": {},
	"m.standvirtual.com":   {},
	"standvirtual.pt":      {},
	"www.standvirtual.pt":  {},
	"m.standvirtual.pt":    {},
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// NormalizeExternalURL validates a partner listing link and returns its
// canonical https form without fragment, default port or trailing slash.
func NormalizeExternalURL(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", Invalid("external url is required")
	}
	if !schemeRe.MatchString(v) {
		v = "https://" + v
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return "", Invalid("invalid external url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Invalid("invalid external url")
	}
	if u.User != nil {
		return "", Invalid("invalid external url")
	}
	host := strings.ToLower(u.Hostname())
	if _, ok := externalHosts[host]; !ok {
		return "", Invalid("external host not allowed")
	}
	port := u.Port()
	if port == "443" || port == "80" {
		port = ""
	}
	u.Scheme = "https"
	u.Host = host
	if port != "" {
		u.Host = host + ":" + port
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
