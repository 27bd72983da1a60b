package jwt

import (
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimUserID     = "user_id"
	ClaimEmployeeID = "employee_id"
	ClaimRole       = "role"
	ClaimType       = "type"

	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey           string
	accessTokenDuration time.Duration
	tokenAuth           *jwtauth.JWTAuth
	now                 func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenDuration time.Duration) Service {
	return &JWTService{
		secretKey:           secretKey,
		accessTokenDuration: accessTokenDuration,
		tokenAuth:           jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                 time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenDuration).Unix()

	claims := map[string]interface{}{
		ClaimUserID:     actor.UserID,
		ClaimEmployeeID: returnValueOrNil(actor.EmployeeID),
		ClaimRole:       string(actor.Role),
		ClaimType:       TokenTypeAccess,
		"exp":           expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ActorFromClaims rebuilds the caller identity from verified access token claims.
func ActorFromClaims(claims map[string]interface{}) (user.Actor, error) {
	if tokenType, _ := claims[ClaimType].(string); tokenType != TokenTypeAccess {
		return user.Actor{}, user.ErrInvalidToken
	}

	userID, ok := claims[ClaimUserID].(string)
	if !ok || userID == "" {
		return user.Actor{}, user.ErrInvalidToken
	}

	role, ok := claims[ClaimRole].(string)
	if !ok || role == "" {
		return user.Actor{}, user.ErrInvalidToken
	}

	actor := user.Actor{UserID: userID, Role: user.Role(role)}
	if employeeID, ok := claims[ClaimEmployeeID].(string); ok && employeeID != "" {
		actor.EmployeeID = &employeeID
	}
	return actor, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
