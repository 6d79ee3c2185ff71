package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/domain"
)

type fakeUsers struct {
	roles map[string]domain.Role
	err   error
}

func (f fakeUsers) Resolve(_ context.Context, id Identity) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roles[id.Email]
	if !ok {
		role = domain.RoleClient
	}
	return &domain.User{ID: id.Email, Name: id.Name, Role: role}, nil
}

func newRouter(users UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", Authenticate(DevVerifier{}, users, logrus.New()))
	g.GET("/me", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": u.ID, "role": u.Role})
	})
	g.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func call(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDevVerifier(t *testing.T) {
	id, err := DevVerifier{}.Verify(context.Background(), "Awa@QG.test")
	require.NoError(t, err)
	assert.Equal(t, "awa@qg.test", id.Email)
	assert.Equal(t, "awa", id.Name)

	_, err = DevVerifier{}.Verify(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	r := newRouter(fakeUsers{roles: map[string]domain.Role{"boss@qg.test": domain.RoleAdmin}})

	assert.Equal(t, http.StatusUnauthorized, call(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "/me", "garbage").Code)

	w := call(r, "/me", "client@qg.test")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"client"`)
}

func TestRequireRole(t *testing.T) {
	r := newRouter(fakeUsers{roles: map[string]domain.Role{"boss@qg.test": domain.RoleAdmin}})

	assert.Equal(t, http.StatusForbidden, call(r, "/admin", "client@qg.test").Code)
	assert.Equal(t, http.StatusNoContent, call(r, "/admin", "boss@qg.test").Code)
}

func TestAuthenticate_ResolverFailure(t *testing.T) {
	r := newRouter(fakeUsers{err: errors.New("store down")})
	assert.Equal(t, http.StatusInternalServerError, call(r, "/me", "client@qg.test").Code)
}
