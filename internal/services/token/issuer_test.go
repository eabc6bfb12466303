package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lostfound/internal/dependencies/mocks"
	"github.com/mcoot/lostfound/internal/model"
)

const testSecret = "test-secret-0123456789"

type IssuerSuite struct {
	suite.Suite
	clock  *mocks.MockClock
	issuer *Issuer
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.issuer = s.newIssuer(Config{Secret: testSecret})
}

func (s *IssuerSuite) newIssuer(cfg Config) *Issuer {
	issuer, err := New(cfg, s.clock)
	s.Require().NoError(err)
	return issuer
}

// flipSignature changes one character in the middle of the signature segment
func flipSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func (s *IssuerSuite) sign(method jwt.SigningMethod, claims Claims, key any) string {
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	s.Require().NoError(err)
	return signed
}

func (s *IssuerSuite) validClaims(aid string) Claims {
	now := s.clock.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lostfound",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		AccountID: aid,
	}
}

// New tests

func (s *IssuerSuite) TestNewRequiresSecret() {
	_, err := New(Config{}, s.clock)
	s.ErrorIs(err, ErrMissingSecret)
}

func (s *IssuerSuite) TestNewRejectsNegativeTTL() {
	_, err := New(Config{Secret: testSecret, TTL: -time.Minute}, s.clock)
	s.Error(err)
}

func (s *IssuerSuite) TestNewAppliesDefaults() {
	s.Equal(24*time.Hour, s.issuer.TTL())
}

// Issue / Verify tests

func (s *IssuerSuite) TestRoundTrip() {
	for _, id := range []model.AccountID{"acc-1", "0d9c7c8e-6a1e-4c1b-9d7e-1f0a2b3c4d5e", "ünï"} {
		issued, err := s.issuer.Issue(id)
		s.Require().NoError(err)
		s.True(issued.ExpiresAt.Equal(s.clock.Now().Add(24 * time.Hour)))

		claims, err := s.issuer.Verify(issued.Token)
		s.Require().NoError(err)
		s.Equal(string(id), claims.AccountID)
		s.Equal(string(id), claims.Subject)
		s.Equal("lostfound", claims.Issuer)
		s.NotEmpty(claims.ID)
	}
}

func (s *IssuerSuite) TestIssueRequiresAccountID() {
	_, err := s.issuer.Issue("")
	s.Error(err)
}

func (s *IssuerSuite) TestEachTokenHasDistinctID() {
	first, _ := s.issuer.Issue("acc-1")
	second, _ := s.issuer.Issue("acc-1")

	c1, err := s.issuer.Verify(first.Token)
	s.Require().NoError(err)
	c2, err := s.issuer.Verify(second.Token)
	s.Require().NoError(err)
	s.NotEqual(c1.ID, c2.ID)
}

func (s *IssuerSuite) TestVerifyEmptyToken() {
	_, err := s.issuer.Verify("")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyMalformedToken() {
	for _, tok := range []string{"garbage", "a.b", "a.b.c", "Bearer x"} {
		_, err := s.issuer.Verify(tok)
		s.ErrorIs(err, ErrInvalidToken, tok)
	}
}

func (s *IssuerSuite) TestVerifyTamperedSignature() {
	issued, _ := s.issuer.Issue("acc-1")

	_, err := s.issuer.Verify(flipSignature(issued.Token))
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyTamperedPayload() {
	issued, _ := s.issuer.Issue("acc-1")
	other, _ := s.issuer.Issue("acc-2")

	// Header and signature from one token, claims from another
	a := strings.Split(issued.Token, ".")
	b := strings.Split(other.Token, ".")
	_, err := s.issuer.Verify(a[0] + "." + b[1] + "." + a[2])
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyWrongSecret() {
	other := s.newIssuer(Config{Secret: "another-secret"})
	issued, _ := other.Issue("acc-1")

	_, err := s.issuer.Verify(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyExpiredToken() {
	issued, _ := s.issuer.Issue("acc-1")

	s.clock.Advance(24*time.Hour + time.Second)

	_, err := s.issuer.Verify(issued.Token)
	s.ErrorIs(err, ErrTokenExpired)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyJustBeforeExpiry() {
	issued, _ := s.issuer.Issue("acc-1")

	s.clock.Advance(24*time.Hour - time.Second)

	_, err := s.issuer.Verify(issued.Token)
	s.NoError(err)
}

func (s *IssuerSuite) TestVerifyRejectsAlgNone() {
	tok := s.sign(jwt.SigningMethodNone, s.validClaims("acc-1"), jwt.UnsafeAllowNoneSignatureType)

	_, err := s.issuer.Verify(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyRejectsOtherHMACSize() {
	tok := s.sign(jwt.SigningMethodHS512, s.validClaims("acc-1"), []byte(testSecret))

	_, err := s.issuer.Verify(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyRejectsMissingAccountID() {
	tok := s.sign(jwt.SigningMethodHS256, s.validClaims(""), []byte(testSecret))

	_, err := s.issuer.Verify(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyRejectsWrongIssuer() {
	claims := s.validClaims("acc-1")
	claims.Issuer = "someone-else"
	tok := s.sign(jwt.SigningMethodHS256, claims, []byte(testSecret))

	_, err := s.issuer.Verify(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestVerifyRejectsMissingExpiry() {
	claims := s.validClaims("acc-1")
	claims.ExpiresAt = nil
	tok := s.sign(jwt.SigningMethodHS256, claims, []byte(testSecret))

	_, err := s.issuer.Verify(tok)
	s.ErrorIs(err, ErrInvalidToken)
}

// Rotation tests

func (s *IssuerSuite) TestPreviousSecretStillVerifies() {
	old := s.newIssuer(Config{Secret: "old-secret"})
	issued, _ := old.Issue("acc-1")

	rotated := s.newIssuer(Config{Secret: "new-secret", PreviousSecrets: []string{"old-secret"}})

	claims, err := rotated.Verify(issued.Token)
	s.Require().NoError(err)
	s.Equal("acc-1", claims.AccountID)

	// Once the old secret is dropped the token stops verifying
	dropped := s.newIssuer(Config{Secret: "new-secret"})
	_, err = dropped.Verify(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IssuerSuite) TestNewTokensUseCurrentSecret() {
	rotated := s.newIssuer(Config{Secret: "new-secret", PreviousSecrets: []string{"old-secret"}})
	issued, _ := rotated.Issue("acc-1")

	old := s.newIssuer(Config{Secret: "old-secret"})
	_, err := old.Verify(issued.Token)
	s.ErrorIs(err, ErrInvalidToken)
}
