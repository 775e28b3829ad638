package middlewares

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/ledger"
)

// Auth struct represents parsed jwt information.
type Auth struct {
	UID          string   `json:"uid"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	ReferralCode string   `json:"referral_code"`
	ReferredBy   string   `json:"referred_by"`
	Audience     []string `json:"aud,omitempty"`

	jwt.StandardClaims
}

func publicKey() (*rsa.PublicKey, error) {
	public_key_pem, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_PUBLIC_KEY"))
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(public_key_pem)
}

// Authenticate verifies the RS256 session token and loads the account of
// its subject, creating the account on first sight.
func Authenticate(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var auth Auth

		token := c.Get("Authorization")

		if len(token) == 0 {
			return c.Status(401).JSON(helpers.Errors{
				Errors: []string{helpers.AuthzInvalidSession},
				Kind:   string(ledger.KindAuth),
			})
		}

		token = strings.Replace(token, "Bearer ", "", -1)

		public_key, err := publicKey()
		if err != nil {
			return c.Status(500).JSON(helpers.Errors{
				Errors: []string{helpers.ServerInternalError},
				Kind:   string(ledger.KindInternal),
			})
		}

		_, err = jwt.ParseWithClaims(token, &auth, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return public_key, nil
		})

		if err != nil || len(auth.UID) == 0 {
			return c.Status(401).JSON(helpers.Errors{
				Errors: []string{helpers.JwtDecodeAndVerify},
				Kind:   string(ledger.KindAuth),
			})
		}

		account, err := svc.EnsureAccount(c.UserContext(), ledger.Identity{
			UID:          auth.UID,
			Email:        auth.Email,
			Role:         auth.Role,
			ReferralCode: strings.TrimSpace(auth.ReferralCode),
			ReferredBy:   strings.TrimSpace(auth.ReferredBy),
		})
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		c.Locals("CurrentUser", account)

		return c.Next()
	}
}
