package devserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/archivekit/identity"
	"github.com/kbukum/archivekit/logger"
)

// V3 identity wire shapes, server side. The request mirrors what
// clients post; unknown fields such as the user domain are ignored.

type authTokenRequest struct {
	Auth struct {
		Identity struct {
			Methods  []string       `json:"methods"`
			Password *passwordProof `json:"password"`
			Token    *tokenProof    `json:"token"`
		} `json:"identity"`
		Scope *scopeProof `json:"scope"`
	} `json:"auth"`
}

type scopeProof struct {
	Project struct {
		ID string `json:"id"`
	} `json:"project"`
}

type passwordProof struct {
	User struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	} `json:"user"`
}

type tokenProof struct {
	ID string `json:"id"`
}

type principalDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type endpointDoc struct {
	Interface string `json:"interface"`
	URL       string `json:"url"`
}

type catalogDoc struct {
	Type      string        `json:"type"`
	Endpoints []endpointDoc `json:"endpoints"`
}

type tokenDoc struct {
	ExpiresAt string        `json:"expires_at"`
	User      principalDoc  `json:"user"`
	Project   *principalDoc `json:"project,omitempty"`
	Catalog   []catalogDoc  `json:"catalog,omitempty"`
}

// handleTokens implements POST /v3/auth/tokens: a password or token
// proof, optionally scoped to a project. The issued token travels in
// the X-Subject-Token response header; scoped tokens carry a catalog
// pointing at this server's storage endpoint for the project.
func (s *Server) handleTokens(c *gin.Context) {
	var req authTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		keystoneError(c, http.StatusBadRequest, "malformed auth request")
		return
	}

	var user *userRecord
	switch {
	case req.Auth.Identity.Password != nil:
		u, err := s.accounts.authenticate(req.Auth.Identity.Password.User.Name, req.Auth.Identity.Password.User.Password)
		if errors.Is(err, errUnknownUser) {
			keystoneError(c, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			keystoneError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		user = u
	case req.Auth.Identity.Token != nil:
		claims, err := s.tokens.verify(req.Auth.Identity.Token.ID)
		if err != nil {
			keystoneError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		u, ok := s.accounts.userByID(claims.Subject)
		if !ok {
			keystoneError(c, http.StatusNotFound, "user not found")
			return
		}
		user = u
	default:
		keystoneError(c, http.StatusBadRequest, "auth request carries no proof")
		return
	}

	var project *identity.ProjectRef
	if req.Auth.Scope != nil {
		ref, ok := s.accounts.project(req.Auth.Scope.Project.ID)
		if !ok {
			keystoneError(c, http.StatusNotFound, "project not found")
			return
		}
		if !s.accounts.isMember(ref.ID, user.id) {
			keystoneError(c, http.StatusUnauthorized, "user is not authorized for project "+ref.ID)
			return
		}
		project = &ref
	}

	signed, expires, err := s.tokens.issue(user, project)
	if err != nil {
		keystoneError(c, http.StatusInternalServerError, err.Error())
		return
	}

	doc := tokenDoc{
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		User:      principalDoc{ID: user.id, Name: user.name},
	}
	if project != nil {
		doc.Project = &principalDoc{ID: project.ID, Name: project.Name}
		doc.Catalog = []catalogDoc{{
			Type: "object-store",
			Endpoints: []endpointDoc{{
				Interface: "public",
				URL:       s.storageURL(project.ID),
			}},
		}}
	}

	s.log.Debug("token issued", map[string]interface{}{
		"user":   user.name,
		"scoped": project != nil,
	})

	c.Header("X-Subject-Token", signed)
	c.JSON(http.StatusCreated, gin.H{"token": doc})
}

// handleUserProjects implements GET /v3/users/:id/projects. The token
// must belong to the user being asked about.
func (s *Server) handleUserProjects(c *gin.Context) {
	claims, err := s.tokens.verify(c.GetHeader("X-Auth-Token"))
	if err != nil {
		keystoneError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	userID := c.Param("id")
	if claims.Subject != userID {
		keystoneError(c, http.StatusForbidden, "token does not match user")
		return
	}

	refs := s.accounts.projectsFor(userID)
	s.log.Debug("projects listed", map[string]interface{}{
		"user":            claims.UserName,
		logger.FieldCount: len(refs),
	})
	c.JSON(http.StatusOK, gin.H{"projects": refs})
}

// keystoneError writes an identity-service style error document.
func keystoneError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    status,
			"title":   http.StatusText(status),
			"message": message,
		},
	})
}
