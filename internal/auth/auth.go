// Package auth verifies bearer tokens and enforces role groups.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"qgsape/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// userKey is the gin context key holding the signed-in *domain.User.
const userKey = "auth_user"

// Identity is what a verified token tells about the caller.
type Identity struct {
	Email     string
	Name      string
	AvatarURL string
}

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// UserResolver loads the profile of a verified identity, creating it on first sight.
type UserResolver interface {
	Resolve(ctx context.Context, id Identity) (*domain.User, error)
}

// FirebaseVerifier checks Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	email, _ := t.Claims["email"].(string)
	if email == "" {
		return Identity{}, fmt.Errorf("%w: token has no email claim", ErrInvalidToken)
	}
	name, _ := t.Claims["name"].(string)
	picture, _ := t.Claims["picture"].(string)
	return Identity{Email: strings.ToLower(email), Name: name, AvatarURL: picture}, nil
}

// DevVerifier accepts the email itself as the token. Local development only.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, token string) (Identity, error) {
	addr, err := mail.ParseAddress(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: dev token must be an email", ErrInvalidToken)
	}
	email := strings.ToLower(addr.Address)
	return Identity{Email: email, Name: strings.SplitN(email, "@", 2)[0]}, nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate rejects requests without a valid token and stores the caller's
// profile in the gin context.
func Authenticate(verifier TokenVerifier, users UserResolver, log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("module", "auth")
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Debug("Token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}
		u, err := users.Resolve(c.Request.Context(), id)
		if err != nil {
			log.WithError(err).WithField("email", id.Email).Error("Failed to resolve user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CurrentUser returns the profile set by Authenticate.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
