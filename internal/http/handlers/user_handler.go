// User HTTP handlers.
//
//   - POST /users          (provision a user and its capability sub-row)
//   - GET  /users/{userId} (profile with nested employee/customer/org data)
//
// Which sub-row a new user receives is decided server-side from the
// organization; the request cannot choose a role.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUserRequest is the JSON payload for provisioning a user. ID is
// optional; when the identity provider already issued one it is reused,
// otherwise a UUID is generated.
type CreateUserRequest struct {
	ID             string `json:"id" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
	Email          string `json:"email" binding:"required,email" example:"sam@acme.test"`
	OrganizationID string `json:"organization_id" binding:"required" example:"1f7f3c9a-0d2e-4b7e-9b61-8f4f0c2a9d11"`
}

// CreateUser godoc
// @ID          createUser
// @Summary     Provision a user
// @Description Creates the user row plus an employee or customer sub-row,
// @Description decided by the target organization.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateUserRequest true "User payload"
// @Success     201 {object} domain.User
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     409 {object} handlers.ErrorResponse "Email already registered"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and organization_id are required")
		return
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a UUID")
			return
		}
	}

	u, err := h.userSvc.Create(c.Request.Context(), req.ID, req.Email, req.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, http.StatusConflict, ErrCodeConflict, "user already exists")
			return
		}
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a user profile
// @Description Returns the user with nested employee/customer and
// @Description organization data.
// @Tags        Users
// @Produce     json
// @Param       userId path string true "User ID (UUID)" format(uuid)
// @Success     200 {object} domain.User
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404 {object} handlers.ErrorResponse "User not found"
// @Router      /users/{userId} [get]
// @Security    BearerAuth
func (h *Handlers) GetUser(c *gin.Context) {
	id := c.Param("userId")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
