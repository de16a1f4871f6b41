package domain

// Session is the result of a successful login, refresh or reset: a
// minted token pair plus the customer it belongs to. The refresh token
// travels only in the session cookie, never in a JSON body.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds until the access token expires
	Customer     Customer
}
