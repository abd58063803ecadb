package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleStaff is the only role the API knows about.
const RoleStaff = "staff"

var ErrEmptySecret = errors.New("jwt: empty signing secret")

// Issue signs an HS256 token for a staff member. The subject is the name
// recorded in request logs for every write it authorizes.
func Issue(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if subject == "" {
		return "", errors.New("jwt: empty subject")
	}
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleStaff,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
