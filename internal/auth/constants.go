// Package auth provides session token issuance and the HTTP middleware
// that authenticates and authorizes Gatekeeper requests.
package auth

// =============================================================================
// Token Transport
// =============================================================================

const (
	// AuthorizationHeader carries "Bearer <token>".
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the token in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// TokenHeader is the bare-token request header accepted as an alternative.
	TokenHeader = "auth"

	// TokenCookie is the cookie set by the cookie login variant.
	TokenCookie = "auth"

	// RefreshedTokenHeader is set on every authenticated response with a token
	// carrying a fresh expiry.
	RefreshedTokenHeader = "token"
)

// TokenSource identifies where the middleware found the token.
type TokenSource int

const (
	// TokenSourceNone means the request carried no token.
	TokenSourceNone TokenSource = iota

	// TokenSourceBearer means the token came from the Authorization header.
	TokenSourceBearer

	// TokenSourceHeader means the token came from the auth header.
	TokenSourceHeader

	// TokenSourceCookie means the token came from the auth cookie.
	TokenSourceCookie
)

// String returns the string representation of the token source.
func (s TokenSource) String() string {
	switch s {
	case TokenSourceBearer:
		return "bearer"
	case TokenSourceHeader:
		return "header"
	case TokenSourceCookie:
		return "cookie"
	default:
		return "none"
	}
}
