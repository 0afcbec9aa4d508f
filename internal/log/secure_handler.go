package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,
	"private_key":   true,
	"secret_key":    true,

	// Session cookies of the audited site
	"jsessionid": true,
	"phpsessid":  true,

	// Credentials
	"credential":  true,
	"credentials": true,
}

// cookieKeys hold cookie strings. Their values are masked per cookie so the
// names stay readable.
var cookieKeys = map[string]bool{
	"cookie":     true,
	"cookies":    true,
	"set-cookie": true,
	"setcookie":  true,
}

// sensitiveKeywords mark a key as sensitive when it contains any of them.
// The bare word "key" is left out; it matches too many harmless keys
// ("url_key", "primary_key").
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// sensitivePatterns match values that are masked regardless of the key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// Long alphanumeric strings (API keys)
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	// AWS access keys
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// partialMask replaces the sensitive part of a value that is otherwise kept.
const partialMask = "***"

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
//
// Design decision: A handler wrapper rather than a custom logger, so every
// package keeps using plain *slog.Logger and the sanitizing works with any
// output handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes sanitized and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}
	if cookieKeys[key] {
		return slog.String(a.Key, RedactCookie(a.Value.String()))
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	value := a.Value.String()
	if isSensitiveValue(value) {
		return slog.String(a.Key, MaskValue)
	}
	if redacted, ok := redactURLQuery(value); ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// RedactCookie masks the value of every name=value pair in a Cookie or
// Set-Cookie string and drops the attributes: "a=1; b=2" becomes
// "a=***; b=***" and "id=7; Path=/; Secure" becomes "id=***".
func RedactCookie(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name, _, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name == "" || isCookieAttribute(name) {
			continue
		}
		out = append(out, name+"="+partialMask)
	}
	if len(out) == 0 {
		return MaskValue
	}
	return strings.Join(out, "; ")
}

// cookieAttributes are the Set-Cookie attributes that take a value.
var cookieAttributes = map[string]bool{
	"domain": true, "path": true, "expires": true, "max-age": true, "samesite": true, "priority": true,
}

func isCookieAttribute(name string) bool {
	return cookieAttributes[strings.ToLower(name)]
}

// redactURLQuery replaces the query and fragment of an absolute http(s) URL.
// It reports false for values that are not such URLs or have nothing to hide.
func redactURLQuery(value string) (string, bool) {
	lc := strings.ToLower(value)
	if !strings.HasPrefix(lc, "http://") && !strings.HasPrefix(lc, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil {
		return MaskValue, true
	}
	if u.RawQuery == "" && u.Fragment == "" && u.User == nil {
		return "", false
	}
	hasQuery := u.RawQuery != ""
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	redacted := u.String()
	if hasQuery {
		redacted += "?" + partialMask
	}
	return redacted, true
}

// NewSecureLogger creates a text logger with secure handling.
// verbose sets the level to Debug; otherwise only warnings and errors are
// written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON logger with secure handling, for log
// aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
