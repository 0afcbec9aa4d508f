// Package log provides secure logging built on top of the standard slog
// package.
//
// Captures are full of data that should not end up in log files: cookie
// values, identifiers in query strings, tokens in headers. SecureHandler
// wraps any slog.Handler and sanitizes attributes before they are written:
//   - Cookie attributes keep the cookie names and lose the values
//   - URLs keep scheme, host and path and lose the query string
//   - Secrets found by key name or value pattern are masked entirely
//
// Sanitizing happens in verbose mode too, so debug logs can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("cookie stored",
//	    "cookie", "_ga=GA1.2.3; Path=/",               // logged as "_ga=***"
//	    "url", "https://example.com/?uid=42",         // logged as "https://example.com/?***"
//	)
//	slog.SetDefault(logger)
package log
