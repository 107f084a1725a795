package rest

import (
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	errTokenExpired = errors.New("token expired")
	errInvalidToken = errors.New("invalid token")
)

// TokenClaims are the claims the service relies on from the auth provider's
// access token.
type TokenClaims struct {
	UserID uuid.UUID
	Exp    int64
}

func (api *API) verifyToken(tokenString string) (*TokenClaims, error) {
	secret := api.Config.JwtSecret
	if secret == "" {
		return nil, errors.Wrap(errInvalidToken, "jwt secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	// only a token whose sole problem is expiry counts as expired
	if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors == jwt.ValidationErrorExpired {
		return nil, errTokenExpired
	}

	if err != nil || !token.Valid {
		return nil, errors.Wrapf(errInvalidToken, "%v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(errInvalidToken, "invalid claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.Wrap(errInvalidToken, "missing exp")
	}

	if aud := api.Config.JwtAudience; aud != "" && !claims.VerifyAudience(aud, true) {
		return nil, errors.Wrap(errInvalidToken, "unexpected audience")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return nil, errors.Wrap(errInvalidToken, "invalid user id")
	}

	return &TokenClaims{
		UserID: userID,
		Exp:    int64(exp),
	}, nil
}
