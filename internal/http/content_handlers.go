package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"qgsape/internal/auth"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
	"qgsape/internal/service"
)

// crudService is the admin surface of a content collection.
type crudService[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (*T, error)
	Update(ctx context.Context, id string, v T) (*T, error)
	Delete(ctx context.Context, id string) error
}

// registerCRUD mounts list, create, update and delete under g.
func registerCRUD[T any](g *gin.RouterGroup, svc crudService[T]) {
	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c)
		if err != nil {
			c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})
	g.POST("", func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		v, err := svc.Create(c, req)
		if err != nil {
			c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, v)
	})
	g.PUT("/:id", func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		v, err := svc.Update(c, c.Param("id"), req)
		if err != nil {
			c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	})
	g.DELETE("/:id", func(c *gin.Context) {
		if err := svc.Delete(c, c.Param("id")); err != nil {
			c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// listEnabled serves the public view of a content collection.
func listEnabled[T any, P interface {
	repository.DocumentPtr[T]
	IsEnabled() bool
}](svc *service.CRUD[T, P]) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c)
		if err != nil {
			c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, service.EnabledOnly[T, P](list))
	}
}

// @Summary Site information
// @Tags content
// @Produce json
// @Success 200 {object} domain.SiteInfo
// @Router /settings/site [get]
func (s *Server) getSiteInfo(c *gin.Context) {
	info, err := s.svc.Settings.Get(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary Replace site information
// @Tags admin
// @Accept json
// @Produce json
// @Param input body domain.SiteInfo true "Site info"
// @Success 200 {object} domain.SiteInfo
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /admin/settings/site [put]
func (s *Server) putSiteInfo(c *gin.Context) {
	var req domain.SiteInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	info, err := s.svc.Settings.Put(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Community

// @Summary Community posts, newest first
// @Tags community
// @Produce json
// @Success 200 {array} domain.Post
// @Router /community/posts [get]
func (s *Server) listPosts(c *gin.Context) {
	list, err := s.svc.Community.List(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Publish a post
// @Description The text is moderated first; a rejected post is not stored.
// @Tags community
// @Accept json
// @Produce json
// @Param input body service.PostInput true "Post"
// @Success 201 {object} domain.Post
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /community/posts [post]
func (s *Server) createPost(c *gin.Context) {
	var req service.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, _ := auth.CurrentUser(c)
	p, err := s.svc.Community.Create(c, u, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Delete a post
// @Tags admin
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/community/posts/{id} [delete]
func (s *Server) deletePost(c *gin.Context) {
	if err := s.svc.Community.Delete(c, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Subscribe to the newsletter
// @Tags content
// @Accept json
// @Produce json
// @Param input body service.SubscribeInput true "Subscriber"
// @Success 200 {object} map[string]any
// @Router /newsletter [post]
func (s *Server) subscribe(c *gin.Context) {
	var req service.SubscribeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		softFailure(c, "Adresse email invalide.")
		return
	}
	if err := s.svc.Newsletter.Subscribe(c, req); err != nil {
		if mapErrorToStatus(err) == http.StatusBadRequest {
			softFailure(c, "Adresse email invalide.")
			return
		}
		s.log.WithError(err).Error("Newsletter subscription failed")
		softFailure(c, "L'inscription a échoué, réessayez plus tard.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Merci pour votre inscription !"})
}

// Users

// @Summary Profile of the signed-in user
// @Tags account
// @Produce json
// @Success 200 {object} domain.User
// @Security BearerAuth
// @Router /account/profile [get]
func (s *Server) getProfile(c *gin.Context) {
	u, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, u)
}

// @Summary Update the signed-in user's profile
// @Tags account
// @Accept json
// @Produce json
// @Param input body service.ProfileInput true "Profile"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /account/profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, _ := auth.CurrentUser(c)
	updated, err := s.svc.Users.UpdateProfile(c, u.ID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary List users
// @Tags admin
// @Produce json
// @Success 200 {array} domain.User
// @Security BearerAuth
// @Router /admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	list, err := s.svc.Users.List(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type roleReq struct {
	Role domain.Role `json:"role" binding:"required"`
}

// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param input body roleReq true "Role"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/users/{email}/role [patch]
func (s *Server) setUserRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	actor, _ := auth.CurrentUser(c)
	u, err := s.svc.Users.SetRole(c, actor, c.Param("email"), req.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
