package oauthmodel

// GoogleAuthRequest is the body of POST /api/auth/google.
type GoogleAuthRequest struct {
	// GoogleToken is the credential issued by Google (an ID token). The
	// server verifies it; the client treats it as opaque.
	GoogleToken string `json:"google_token"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
