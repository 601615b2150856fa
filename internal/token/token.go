// internal/token/token.go
package token

// Mask renders a token safe for logs: first and last four characters with
// the middle elided, "****" for short tokens, "empty" for blank ones.
func Mask(token string) string {
	if token == "" {
		return "empty"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
