package handler

import (
	"context"
	"net/http"
	"strconv"

	"community_hub/internal/middleware"
	"community_hub/internal/model"
	"community_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// UserService is implemented by *service.UserService.
type UserService interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetProfile(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, in service.UpdateUserInput) (*model.User, error)
	ArchiveUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, page, limit int) (*service.UserPage, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserReq is the signup body.
type CreateUserReq struct {
	Name     string  `json:"name" validate:"required,max=128"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin user"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Zip      *string `json:"zip"`
	Country  *string `json:"country"`
}

type UpdateUserReq struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	Address           *string `json:"address"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	Zip               *string `json:"zip"`
	Country           *string `json:"country"`
	IsProfileComplete *bool   `json:"isProfileComplete"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserReq
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Zip:      req.Zip,
		Country:  req.Country,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "User created successfully")
}

// List falls back to the default page and limit when either is missing or invalid.
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := h.svc.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, res.Items, res.Total, res.Page, res.Limit)
}

// Profile serves both /users/profile and /users/:id; the token identity wins
// over the path.
func (h *UserHandler) Profile(c *gin.Context) {
	id := middleware.UserID(c)
	if id == "" {
		id = c.Param("id")
	}
	if id == "" {
		respondFail(c, http.StatusBadRequest, "User ID required", nil)
		return
	}

	user, err := h.svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}

func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserReq
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		Zip:               req.Zip,
		Country:           req.Country,
		IsProfileComplete: req.IsProfileComplete,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User updated successfully")
}

func (h *UserHandler) Archive(c *gin.Context) {
	if err := h.svc.ArchiveUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "User archived successfully")
}

// Login exchanges credentials for a bearer token.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res, "Login successful")
}

// Signout tokens are stateless; the client drops its copy.
func (h *UserHandler) Signout(c *gin.Context) {
	respond(c, http.StatusOK, nil, "Signed out successfully")
}
