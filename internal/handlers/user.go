package handlers

import (
	"net/http"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/pkg/dto"
)

const userSearchLimit = 10

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, userResponse(user))
}

// Get returns another user's public profile.
func (h *UserHandler) Get(c *drift.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, userResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, req.Name, req.Username)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, userResponse(user))
}

func (h *UserHandler) ChangePassword(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

// Search finds other users to invite by email, username or name.
func (h *UserHandler) Search(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	q := strings.TrimSpace(c.QueryParam("q"))
	if len(q) < 2 {
		c.BadRequest("q must be at least 2 characters")
		return
	}

	users, err := h.userService.Search(c.Request.Context(), q, userID, userSearchLimit)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, usersResponse(users))
}

func usersResponse(users []models.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return out
}
