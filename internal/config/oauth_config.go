package config

type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleIssuer() string
	GetGoogleRedirectURL() string
	GetGoogleScopes() []string
}

// OAuth holds the Google client used to obtain the credential exchanged at /api/auth/google.
type OAuth struct {
	GoogleClientID     string `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"GOOGLE_CLIENT_SECRET"`
	GoogleIssuer       string `yaml:"google_issuer" env:"GOOGLE_ISSUER" env-default:"https://accounts.google.com"`
	GoogleRedirectURL  string `yaml:"google_redirect_url" env:"GOOGLE_REDIRECT_URL" env-default:"http://127.0.0.1:8085/callback"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetGoogleClientID() string {
	return o.GoogleClientID
}

func (o OAuth) GetGoogleClientSecret() string {
	return o.GoogleClientSecret
}

func (o OAuth) GetGoogleIssuer() string {
	return o.GoogleIssuer
}

func (o OAuth) GetGoogleRedirectURL() string {
	return o.GoogleRedirectURL
}

func (OAuth) GetGoogleScopes() []string {
	return []string{"openid", "email", "profile"}
}
