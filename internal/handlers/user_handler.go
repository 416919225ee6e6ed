package handlers

import (
	"errors"
	"log"
	"strconv"

	"deckforge/internal/middleware"
	"deckforge/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles the authenticated self endpoint and the admin-only
// user management endpoints.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers /users/me on the authenticated router and the
// management routes on the admin router.
func (h *UserHandler) RegisterRoutes(authRouter, adminRouter fiber.Router) {
	authRouter.Get("/users/me", h.HandleMe)

	userRoutes := adminRouter.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleMe returns the current user.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// HandleListUsers retrieves users with skip/limit pagination.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.QueryInt("skip", 0), c.QueryInt("limit", 100))
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

// HandleGetUser retrieves a single user by ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, "Invalid user ID", err)
	}
	user, err := h.service.GetUser(id)
	if err != nil {
		log.Printf("Error getting user %d: %v", id, err)
		return respondError(c, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// HandleUpdateUser applies a partial user update.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, "Invalid user ID", err)
	}

	var update services.UserUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Printf("Error parsing update user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(update); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.service.UpdateUser(id, update)
	if err != nil {
		log.Printf("Error updating user %d: %v", id, err)
		return respondError(c, "Could not update user", err)
	}
	return c.JSON(user)
}

// HandleDeleteUser deletes a user. Admins cannot delete their own account.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, "Invalid user ID", err)
	}

	actingUser := middleware.CurrentUser(c)
	if err := h.service.DeleteUser(id, actingUser.ID); err != nil {
		log.Printf("Error deleting user %d: %v", id, err)
		return respondError(c, "Could not delete user", err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// errBadUserID is mapped to a 400 response in errors.go.
var errBadUserID = errors.New("user ID must be an integer")

func parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, errBadUserID
	}
	return uint(id), nil
}
