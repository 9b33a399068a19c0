package account

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type OAuthSuite struct {
	suite.Suite
}

func TestOAuthSuite(t *testing.T) {
	suite.Run(t, new(OAuthSuite))
}

func (s *OAuthSuite) TestTokensInQuery() {
	access, refresh, err := ExtractOAuthTokens(
		"app://auth/callback?access_token=aaa&refresh_token=rrr")
	s.Require().NoError(err)
	s.Equal("aaa", access)
	s.Equal("rrr", refresh)
}

func (s *OAuthSuite) TestTokensInFragment() {
	access, refresh, err := ExtractOAuthTokens(
		"app://auth/callback#access_token=aaa&refresh_token=rrr")
	s.Require().NoError(err)
	s.Equal("aaa", access)
	s.Equal("rrr", refresh)
}

func (s *OAuthSuite) TestQueryWinsOverFragment() {
	access, refresh, err := ExtractOAuthTokens(
		"app://auth/callback?access_token=from_query&refresh_token=r1#access_token=from_fragment&refresh_token=r2")
	s.Require().NoError(err)
	s.Equal("from_query", access)
	s.Equal("r1", refresh)
}

func (s *OAuthSuite) TestNoTokens() {
	_, _, err := ExtractOAuthTokens("app://auth/callback?state=xyz")
	s.ErrorIs(err, ErrNoOAuthTokens)

	_, _, err = ExtractOAuthTokens("app://auth/callback")
	s.ErrorIs(err, ErrNoOAuthTokens)
}

func (s *OAuthSuite) TestMalformedURL() {
	_, _, err := ExtractOAuthTokens("://not-a-url")
	s.Error(err)
}
