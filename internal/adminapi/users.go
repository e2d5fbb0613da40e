package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

// PasswordCost is the bcrypt cost for stored admin passwords.
const PasswordCost = 10

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiPOST("/users", createUser)
	webserver.ApiPUT("/users/:id", updateUser)
	webserver.ApiDELETE("/users/:id", deleteUser)
	webserver.ApiDELETE("/users", deleteUsers)
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Mobile   string `json:"mobile" validate:"max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	IsActive *bool  `json:"isActive"`
}

type updateUserRequest struct {
	Name     string  `json:"name" validate:"max=100"`
	Mobile   *string `json:"mobile" validate:"omitempty,max=32"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"omitempty,min=6"`
	IsActive *bool   `json:"isActive"`
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// emailTaken reports whether email belongs to a user other than selfID.
func emailTaken(c echo.Context, email string, selfID int64) (bool, error) {
	u, err := repos(c).Users.GetByEmail(c.Request().Context(), email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != selfID, nil
}

// @Summary list admin users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users [get]
func listUsers(c echo.Context) error {
	rows, err := repos(c).Users.List(c.Request().Context())
	if err != nil {
		return repoFail(c, err, "", "Failed to query users")
	}
	return ok(c, rows)
}

// @Summary create an admin user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "{name, mobile, email, password, isActive}"
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users [post]
func createUser(c echo.Context) error {
	var req createUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return handleValidationError(c, err)
	}
	taken, err := emailTaken(c, req.Email, 0)
	if err != nil {
		return repoFail(c, err, "", "Failed to query users")
	}
	if taken {
		return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL", "User with this email already exists", nil)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", err.Error())
	}
	u := &domain.User{
		ID:       common.UUIDint64(),
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Password: hash,
		IsActive: true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	u.Normalize()
	if err := repos(c).Users.Create(c.Request().Context(), u); err != nil {
		return repoFail(c, err, "", "Failed to create user")
	}
	return created(c, u)
}

// @Summary update an admin user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Param body body object true "{name, mobile, email, password, isActive}"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/{id} [put]
func updateUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var req updateUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return handleValidationError(c, err)
	}

	ctx := c.Request().Context()
	u, err := repos(c).Users.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "User not found", "Failed to query user")
	}
	if req.Email != "" && req.Email != u.Email {
		taken, err := emailTaken(c, req.Email, u.ID)
		if err != nil {
			return repoFail(c, err, "", "Failed to query users")
		}
		if taken {
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL", "User with this email already exists", nil)
		}
		u.Email = req.Email
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Mobile != nil {
		u.Mobile = *req.Mobile
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if strings.TrimSpace(req.Password) != "" {
		if u.Password, err = hashPassword(req.Password); err != nil {
			return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", err.Error())
		}
	}
	u.Normalize()
	if err := repos(c).Users.Update(ctx, u); err != nil {
		return repoFail(c, err, "User not found", "Failed to update user")
	}
	return ok(c, u)
}

// @Summary delete an admin user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/{id} [delete]
func deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	if err := repos(c).Users.Delete(c.Request().Context(), id); err != nil {
		return repoFail(c, err, "User not found", "Failed to delete user")
	}
	return message(c, "User deleted successfully", map[string]interface{}{})
}

// @Summary delete admin users in bulk
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "{ids: [...]}"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users [delete]
func deleteUsers(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	n, err := repos(c).Users.DeleteMany(c.Request().Context(), ids)
	if err != nil {
		return repoFail(c, err, "", "Failed to delete users")
	}
	return message(c, "Users deleted successfully", map[string]int64{"deleted": n})
}
