package rpcserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the fixed "iss" claim checked by verifyStopToken.
const tokenIssuer = "parsekitd"

// GenerateStopToken signs a bearer token authorizing the stop method,
// valid for ttl starting now.
func GenerateStopToken(secret []byte, ttl time.Duration) (string, error) {
	claims := &jwt.MapClaims{
		"iss": tokenIssuer,
		"sub": "stop",
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(secret)
}

// verifyStopToken checks tok against secret: a fixed issuer, HS512 only,
// and a minute of leeway for clock skew between the requester and the
// server.
func verifyStopToken(tok string, secret []byte) error {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithLeeway(time.Minute))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return fmt.Errorf("token is not valid")
	}
	subj, err := parsed.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("cannot get subject: %w", err)
	}
	if subj != "stop" {
		return fmt.Errorf("token is not authorized for stop")
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer TOKEN"
// header value.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("no authorization header present")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	if !strings.EqualFold(strings.TrimSpace(parts[0]), "bearer") {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	return strings.TrimSpace(parts[1]), nil
}
