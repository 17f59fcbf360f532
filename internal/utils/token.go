package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorToken is a signed HS256 JWT identifying the desk operator,
// plus its expiry.  The operator name travels in the sub claim and is
// stamped onto called_by when the operator calls a visitor.
type OperatorToken struct {
	Token string
	Exp   time.Time
}

// NewOperatorToken signs a token for the given operator name with the
// provided secret and TTL in minutes.
func NewOperatorToken(secret, operator string, ttlMin int) (OperatorToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": operator,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return OperatorToken{}, err
	}
	return OperatorToken{Token: signed, Exp: exp}, nil
}
