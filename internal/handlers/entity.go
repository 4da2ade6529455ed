package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projectdesk/internal/dto"
	apierrors "github.com/yukikurage/projectdesk/internal/errors"
	"github.com/yukikurage/projectdesk/internal/facade"
	"github.com/yukikurage/projectdesk/internal/middleware"
	"github.com/yukikurage/projectdesk/internal/models"
)

// EntityPaths maps the URL segment of every exposed entity to its type.
var EntityPaths = map[string]models.EntityType{
	"users":       models.EntityUser,
	"roles":       models.EntityRole,
	"clients":     models.EntityClient,
	"projects":    models.EntityProject,
	"tasks":       models.EntityTask,
	"comments":    models.EntityComment,
	"attachments": models.EntityAttachment,
	"audit-logs":  models.EntityAuditLog,
}

// EntityHandler translates REST calls into facade requests.
type EntityHandler struct {
	facade *facade.Facade
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(f *facade.Facade) *EntityHandler {
	return &EntityHandler{facade: f}
}

// Register mounts the CRUD routes of every entity the facade supports, plus
// the entity-specific actions, under group.
func (h *EntityHandler) Register(group *gin.RouterGroup) {
	ops := h.facade.Operations()
	for path, entity := range EntityPaths {
		supported := map[facade.Operation]bool{}
		for _, op := range ops[entity] {
			supported[op] = true
		}

		g := group.Group("/" + path)
		if supported[facade.OpList] {
			g.GET("", h.handle(entity, facade.OpList, http.StatusOK))
		}
		if supported[facade.OpCreate] {
			g.POST("", h.handle(entity, facade.OpCreate, http.StatusCreated))
		}
		if supported[facade.OpRead] {
			g.GET("/:id", h.handle(entity, facade.OpRead, http.StatusOK))
		}
		if supported[facade.OpUpdate] {
			g.PATCH("/:id", h.handle(entity, facade.OpUpdate, http.StatusOK))
		}
		if supported[facade.OpDelete] {
			g.DELETE("/:id", h.handle(entity, facade.OpDelete, http.StatusNoContent))
		}
	}

	group.POST("/tasks/:id/transition", h.handle(models.EntityTask, facade.OpTransition, http.StatusOK))
	group.POST("/projects/:id/suggest-tasks", h.handle(models.EntityProject, facade.OpSuggestTasks, http.StatusOK))
	group.POST("/users/:id/deactivate", h.handle(models.EntityUser, facade.OpDeactivate, http.StatusOK))
	group.POST("/users/:id/activate", h.handle(models.EntityUser, facade.OpActivate, http.StatusOK))
	group.POST("/users/:id/roles", h.handle(models.EntityUser, facade.OpAssignRole, http.StatusCreated))
	group.DELETE("/users/:id/roles/:role_id", h.revokeRole)
	group.GET("/operations", h.operations)
}

func queryMap(c *gin.Context) map[string]string {
	query := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return query
}

func (h *EntityHandler) request(c *gin.Context, entity models.EntityType, op facade.Operation) (facade.Request, error) {
	req := facade.Request{
		Operation:    op,
		EntityType:   entity,
		Query:        queryMap(c),
		SessionToken: middleware.Token(c),
		CallerIP:     c.ClientIP(),
		RequestID:    middleware.GetRequestID(c),
		RawEntityID:  c.Param("id"),
	}

	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return req, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Payload = json.RawMessage(body)
	}
	return req, nil
}

func (h *EntityHandler) respond(c *gin.Context, req facade.Request, status int) {
	result, err := h.facade.Execute(c.Request.Context(), req)
	if err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}

	switch {
	case result.Pagination != nil:
		c.JSON(status, dto.ToListResponse(result.Data, result.Pagination))
	case result.Data == nil:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(status, dto.From(result.Data))
	}
}

func (h *EntityHandler) handle(entity models.EntityType, op facade.Operation, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := h.request(c, entity, op)
		if err != nil {
			apierrors.RespondServiceError(c, err)
			return
		}
		h.respond(c, req, status)
	}
}

func (h *EntityHandler) revokeRole(c *gin.Context) {
	req, err := h.request(c, models.EntityUser, facade.OpRevokeRole)
	if err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}
	// A non-numeric role id stays a string, which the facade rejects once
	// the caller is authorized.
	raw := c.Param("role_id")
	if roleID, err := strconv.ParseUint(raw, 10, 64); err == nil {
		req.Payload = json.RawMessage(fmt.Sprintf(`{"role_id": %d}`, roleID))
	} else {
		quoted, _ := json.Marshal(raw)
		req.Payload = json.RawMessage(fmt.Sprintf(`{"role_id": %s}`, quoted))
	}
	h.respond(c, req, http.StatusNoContent)
}

// operations lists what the caller can ask of each entity type.
func (h *EntityHandler) operations(c *gin.Context) {
	if _, err := h.facade.Principal(middleware.Token(c)); err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.facade.Operations())
}
