package utils

import (
	"context"
	"os"
	"time"

	"github.com/kataras/iris/v12/middleware/jwt"
)

var bgContext = context.Background()

// AccessToken is the claim set minted by the identity service. Everything
// this API needs about the caller travels in it.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

// CreateAccessToken signs an access token for the given user. The identity
// service owns issuance in production; this helper backs tests and local
// tooling.
func CreateAccessToken(id uint, role string) (string, error) {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)

	token, err := signer.Sign(AccessToken{ID: id, Role: role})
	if err != nil {
		return "", err
	}
	return string(token), nil
}
