package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/ports"
)

// UserHandler is the admin panel for identity-service accounts.
type UserHandler struct {
	service ports.UserAdminService
}

func NewUserHandler(service ports.UserAdminService) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required"`
	Role     string `json:"role"      validate:"required,oneof=system_admin admin manager accountant"`
	BranchID int    `json:"branch_id" validate:"min=0"`
}

// updateUserRequest is partial: empty fields are left untouched upstream.
type updateUserRequest struct {
	Email    string `json:"email"     validate:"omitempty,email"`
	Password string `json:"password"`
	Role     string `json:"role"      validate:"omitempty,oneof=system_admin admin manager accountant"`
	BranchID *int   `json:"branch_id" validate:"omitempty,min=0"`
}

type usersResponse struct {
	Users []identityResponse `json:"users"`
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  usersResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.LoadUsers(c.Request().Context())
	return h.render(c, http.StatusOK, users, err)
}

// Create handles POST /api/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  usersResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	branchID := req.BranchID
	users, err := h.service.SaveUser(c.Request().Context(), domain.UserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		BranchID: &branchID,
	})
	return h.render(c, http.StatusCreated, users, err)
}

// Update handles PUT /api/users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  usersResponse
// @Failure      403   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	users, err := h.service.SaveUser(c.Request().Context(), domain.UserInput{
		ID:       id,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		BranchID: req.BranchID,
	})
	return h.render(c, http.StatusOK, users, err)
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  usersResponse
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	users, err := h.service.DeleteUser(c.Request().Context(), id)
	return h.render(c, http.StatusOK, users, err)
}

func (h *UserHandler) render(c echo.Context, status int, users []domain.User, err error) error {
	if err != nil {
		return err
	}
	resp := usersResponse{Users: make([]identityResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, identityResponse{ID: u.ID, Email: u.Email, Role: string(u.Role), BranchID: u.BranchID})
	}
	return c.JSON(status, resp)
}

func userID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}
