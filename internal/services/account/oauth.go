package account

import (
	"net/url"
)

// ExtractOAuthTokens pulls the token pair out of a browser return URL.
// Providers differ on where they put tokens: the query string is checked
// first, and the fragment only when the query yields nothing.
func ExtractOAuthTokens(returnURL string) (accessToken, refreshToken string, err error) {
	u, err := url.Parse(returnURL)
	if err != nil {
		return "", "", err
	}

	query := u.Query()
	accessToken = query.Get("access_token")
	refreshToken = query.Get("refresh_token")
	if accessToken != "" {
		return accessToken, refreshToken, nil
	}

	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return "", "", err
		}
		accessToken = frag.Get("access_token")
		refreshToken = frag.Get("refresh_token")
		if accessToken != "" {
			return accessToken, refreshToken, nil
		}
	}

	return "", "", ErrNoOAuthTokens
}
