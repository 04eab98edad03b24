package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/mysql"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	msgInvalidCredentials = "Invalid email or password"
	msgUserNotFound       = "User not found"
	msgUserInactive       = "User account is not active"
	msgEmailTaken         = "Email already exists"
)

var validate = validator.New()

type UserService struct {
	repo   *mysql.UserRepository
	tokens *pkg.TokenManager
	events EventPublisher
	email  *EmailService
	logger *slog.Logger
}

// NewUserService wires the user operations. events and email may be nil.
func NewUserService(repo *mysql.UserRepository, tokens *pkg.TokenManager, events EventPublisher, email *EmailService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{repo: repo, tokens: tokens, events: events, email: email, logger: logger}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    *string
	Address  *string
	City     *string
	State    *string
	Zip      *string
	Country  *string
}

// UpdateUserInput carries a partial update: nil leaves a field alone,
// an empty string clears a nullable profile field.
type UpdateUserInput struct {
	Name              *string
	Email             *string
	Phone             *string
	Address           *string
	City              *string
	State             *string
	Zip               *string
	Country           *string
	IsProfileComplete *bool
}

type LoginResult struct {
	User  model.LoginUserInfo `json:"user"`
	Token string              `json:"token"`
}

type UserPage struct {
	Items []model.User
	Total int64
	Page  int
	Limit int
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ValidationError("Name, email and password are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, ValidationError("Invalid email format")
	}
	role := in.Role
	if role == "" {
		role = model.UserRoleUser
	}
	if role != model.UserRoleUser && role != model.UserRoleAdmin {
		return nil, ValidationError("Role must be one of admin, user")
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, ServerError("Failed to create user", err)
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
		Status:   model.UserStatusActive,
		Phone:    nonEmpty(in.Phone),
		Address:  nonEmpty(in.Address),
		City:     nonEmpty(in.City),
		State:    nonEmpty(in.State),
		Zip:      nonEmpty(in.Zip),
		Country:  nonEmpty(in.Country),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, ServerError("Failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user created", slog.String("user_id", user.ID))
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventUserCreated, user.ID, user.ID, map[string]string{
		"email": user.Email,
		"role":  user.Role,
	}))
	s.email.SendWelcome(user.Email, user.Name)
	return user, nil
}

// Login answers unknown email and wrong password with the same message.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ValidationError("Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return nil, AuthError(msgInvalidCredentials)
	}
	if err != nil {
		return nil, ServerError("Login failed", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, AuthError(msgInvalidCredentials)
	}
	if user.Status != model.UserStatusActive {
		return nil, ForbiddenError(msgUserInactive)
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, ServerError("Login failed", err)
	}
	return &LoginResult{
		User:  model.LoginUserInfo{ID: user.ID, Role: user.Role, Status: user.Status},
		Token: token,
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ValidationError("User ID required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return nil, NotFoundError(msgUserNotFound)
	}
	if err != nil {
		return nil, ServerError("Failed to get profile", err)
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	updates := map[string]any{}

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			updates["name"] = name
		}
	}
	if in.Email != nil {
		if email := normalizeEmail(*in.Email); email != "" {
			if err := validate.Var(email, "email"); err != nil {
				return nil, ValidationError("Invalid email format")
			}
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
			updates["email"] = email
		}
	}
	setNullable(updates, "phone", in.Phone)
	setNullable(updates, "address", in.Address)
	setNullable(updates, "city", in.City)
	setNullable(updates, "state", in.State)
	setNullable(updates, "zip", in.Zip)
	setNullable(updates, "country", in.Country)
	if in.IsProfileComplete != nil {
		updates["is_profile_complete"] = *in.IsProfileComplete
	}

	if len(updates) == 0 {
		return s.GetProfile(ctx, id)
	}

	err := s.repo.Update(ctx, id, updates)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return nil, NotFoundError(msgUserNotFound)
	}
	if err != nil {
		return nil, ServerError("Failed to update user", err)
	}
	return s.GetProfile(ctx, id)
}

func (s *UserService) ArchiveUser(ctx context.Context, id string) error {
	err := s.repo.Archive(ctx, id)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return NotFoundError(msgUserNotFound)
	}
	if err != nil {
		return ServerError("Failed to archive user", err)
	}
	s.logger.InfoContext(ctx, "user archived", slog.String("user_id", id))
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventUserArchived, id, id, nil))
	return nil
}

// ListUsers pages through live users, newest first. Out-of-range page and
// limit fall back to 1 and 10; limit is capped.
func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	res, err := s.repo.ListPaged(ctx, mysql.PageRequest{Page: page, PageSize: limit})
	if err != nil {
		return nil, ServerError("Failed to list users", err)
	}
	items := res.Items
	if items == nil {
		items = []model.User{}
	}
	return &UserPage{Items: items, Total: res.Total, Page: res.Page, Limit: res.PageSize}, nil
}

// Exists reports whether a live user with id exists.
func (s *UserService) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, mysql.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return ServerError("Failed to check email", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return ConflictError(msgEmailTaken)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func setNullable(updates map[string]any, column string, v *string) {
	if v == nil {
		return
	}
	if cleared := nonEmpty(v); cleared != nil {
		updates[column] = *cleared
		return
	}
	updates[column] = nil
}
