package capture

import "strings"

// specialSchemes are browser-internal schemes that are never analyzed.
var specialSchemes = []string{"chrome:", "about:", "chrome-extension:", "file:", "edge:", "brave:"}

// IsSpecialURL reports whether rawURL uses a browser-internal scheme.
func IsSpecialURL(rawURL string) bool {
	lc := strings.ToLower(strings.TrimSpace(rawURL))
	for _, scheme := range specialSchemes {
		if strings.HasPrefix(lc, scheme) {
			return true
		}
	}
	return false
}

// IsHTTPURL reports whether rawURL is an http or https URL.
func IsHTTPURL(rawURL string) bool {
	lc := strings.ToLower(strings.TrimSpace(rawURL))
	return strings.HasPrefix(lc, "http://") || strings.HasPrefix(lc, "https://")
}

// CanAnalyze reports whether rawURL is a web URL that can be analyzed.
func CanAnalyze(rawURL string) bool {
	if rawURL == "" || IsSpecialURL(rawURL) {
		return false
	}
	return IsHTTPURL(rawURL)
}

// IsLocalhost reports whether host refers to the local machine or network.
func IsLocalhost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" || host == "127.0.0.1" || host == "::1" || strings.HasSuffix(host, ".local")
}
