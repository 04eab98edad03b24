package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/mysql"
	"community_hub/internal/storage"

	"github.com/google/uuid"
)

const (
	msgCommunityNotFound = "Community not found"
	msgMemberExists      = "Member already in community"
	msgMemberNotFound    = "Member not found in community"
	msgForbidden         = "Forbidden"
	msgOwnerDelete       = "Only owner can delete community"
	msgOwnerImage        = "Only owner can update image"
)

// UserLookup is satisfied by *UserService.
type UserLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CommunityCache is a read-through cache for single communities. Get reports
// a generation on a miss; Set stores the snapshot only if no Invalidate ran
// since that generation was read.
type CommunityCache interface {
	Get(ctx context.Context, id string) (*model.Community, int64, bool)
	Set(ctx context.Context, c *model.Community, generation int64)
	Invalidate(ctx context.Context, id string)
}

type CommunityService struct {
	repo    *mysql.CommunityRepository
	members *mysql.CommunityMemberRepository
	users   UserLookup
	cache   CommunityCache
	images  storage.ImageStore
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

type CommunityServiceDeps struct {
	Repo    *mysql.CommunityRepository
	Members *mysql.CommunityMemberRepository
	Users   UserLookup
	Cache   CommunityCache
	Images  storage.ImageStore
	Events  EventPublisher
	Logger  *slog.Logger
}

// NewCommunityService builds the service. Cache, Images and Events are optional.
func NewCommunityService(deps CommunityServiceDeps) *CommunityService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CommunityService{
		repo:    deps.Repo,
		members: deps.Members,
		users:   deps.Users,
		cache:   deps.Cache,
		images:  deps.Images,
		events:  deps.Events,
		logger:  logger,
		now:     time.Now,
	}
}

type CreateCommunityInput struct {
	Name        string
	Description *string
	Visibility  string
	ImageURL    *string
}

type UpdateCommunityInput struct {
	Name        *string
	Description *string
	Visibility  *string
	ImageURL    *string
}

type AddMemberInput struct {
	UserID   string
	Role     string
	Nickname *string
}

type ImageUpload struct {
	Filename string
	Data     []byte
}

func (s *CommunityService) Create(ctx context.Context, ownerID string, in CreateCommunityInput) (*model.Community, error) {
	if ownerID == "" {
		return nil, AuthError("Unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ValidationError("Community name is required")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !validVisibility(visibility) {
		return nil, ValidationError("Visibility must be one of public, private")
	}

	community := &model.Community{
		ID:          uuid.NewString(),
		Name:        name,
		Description: nonEmpty(in.Description),
		ImageURL:    nonEmpty(in.ImageURL),
		Visibility:  visibility,
		OwnerID:     ownerID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, community); err != nil {
		return nil, ServerError("Failed to create community", err)
	}

	s.logger.InfoContext(ctx, "community created",
		slog.String("community_id", community.ID),
		slog.String("owner_id", ownerID))
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventCommunityCreated, community.ID, ownerID, map[string]string{
		"name":       community.Name,
		"visibility": community.Visibility,
	}))
	return community, nil
}

// List returns the communities viewerID may see, rosters attached.
// An empty viewerID sees public communities only.
func (s *CommunityService) List(ctx context.Context, viewerID string) ([]model.Community, error) {
	list, err := s.repo.List(ctx, viewerID)
	if err != nil {
		return nil, ServerError("Failed to list communities", err)
	}
	if list == nil {
		list = []model.Community{}
	}
	return list, nil
}

func (s *CommunityService) Get(ctx context.Context, id string) (*model.Community, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}
	c, generation, ok := s.cache.Get(ctx, id)
	if ok {
		return c, nil
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, c, generation)
	return c, nil
}

func (s *CommunityService) Update(ctx context.Context, actingUserID, id string, in UpdateCommunityInput) (*model.Community, error) {
	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(community, actingUserID, StandingOwnerOrAdmin) {
		return nil, ForbiddenError(msgForbidden)
	}

	updates := map[string]any{}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			updates["name"] = name
		}
	}
	if in.Visibility != nil && *in.Visibility != "" {
		if !validVisibility(*in.Visibility) {
			return nil, ValidationError("Visibility must be one of public, private")
		}
		updates["visibility"] = *in.Visibility
	}
	setNullable(updates, "description", in.Description)
	setNullable(updates, "image_url", in.ImageURL)

	if len(updates) == 0 {
		return community, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, s.repoError(err, "Failed to update community")
	}
	s.invalidate(ctx, id)
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventCommunityUpdated, id, actingUserID, updatedColumns(updates)))
	return s.load(ctx, id)
}

func (s *CommunityService) Delete(ctx context.Context, actingUserID, id string) error {
	community, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !Authorize(community, actingUserID, StandingOwner) {
		return ForbiddenError(msgOwnerDelete)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return s.repoError(err, "Failed to delete community")
	}
	s.invalidate(ctx, id)
	s.logger.InfoContext(ctx, "community deleted",
		slog.String("community_id", id),
		slog.String("actor_id", actingUserID))
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventCommunityDeleted, id, actingUserID, nil))
	return nil
}

func (s *CommunityService) AddMember(ctx context.Context, actingUserID, id string, in AddMemberInput) (*model.Community, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ValidationError("userId is required")
	}
	role := in.Role
	if role == "" {
		role = model.MemberRoleMember
	}
	if role != model.MemberRoleMember && role != model.MemberRoleAdmin {
		return nil, ValidationError("Role must be one of member, admin")
	}

	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(community, actingUserID, StandingOwnerOrAdmin) {
		return nil, ForbiddenError(msgForbidden)
	}
	if community.HasMember(userID) {
		return nil, ConflictError(msgMemberExists)
	}
	if s.users != nil {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return nil, ServerError("Failed to add member", err)
		}
		if !ok {
			return nil, NotFoundError(msgUserNotFound)
		}
	}

	member := &model.CommunityMember{
		CommunityID: id,
		UserID:      userID,
		Role:        role,
		Nickname:    nonEmpty(in.Nickname),
		JoinedAt:    s.now().UTC(),
	}
	if err := s.members.Add(ctx, member); err != nil {
		if errors.Is(err, mysql.ErrMemberExists) {
			return nil, ConflictError(msgMemberExists)
		}
		return nil, ServerError("Failed to add member", err)
	}
	s.invalidate(ctx, id)
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventMemberAdded, id, actingUserID, map[string]string{
		"userId": userID,
		"role":   role,
	}))
	return s.load(ctx, id)
}

// RemoveMember does not protect the owner's own membership row; removing it
// leaves OwnerID in place and is logged.
func (s *CommunityService) RemoveMember(ctx context.Context, actingUserID, id, userID string) (*model.Community, error) {
	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(community, actingUserID, StandingOwnerOrAdmin) {
		return nil, ForbiddenError(msgForbidden)
	}
	if err := s.members.Remove(ctx, id, userID); err != nil {
		if errors.Is(err, mysql.ErrMemberNotFound) {
			return nil, NotFoundError(msgMemberNotFound)
		}
		return nil, ServerError("Failed to remove member", err)
	}
	if userID == community.OwnerID {
		s.logger.WarnContext(ctx, "owner membership removed",
			slog.String("community_id", id),
			slog.String("owner_id", userID),
			slog.String("actor_id", actingUserID))
	}
	s.invalidate(ctx, id)
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventMemberRemoved, id, actingUserID, map[string]string{
		"userId": userID,
	}))
	return s.load(ctx, id)
}

// UploadImage stores the image and points the community at it. The previous
// object is left in place.
func (s *CommunityService) UploadImage(ctx context.Context, actingUserID, id string, upload ImageUpload) (*model.Community, error) {
	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(community, actingUserID, StandingOwner) {
		return nil, ForbiddenError(msgOwnerImage)
	}
	if len(upload.Data) == 0 {
		return nil, ValidationError("Image file is required")
	}
	if s.images == nil {
		return nil, ServerError("Image storage is not configured", nil)
	}

	img, err := storage.SniffImage(upload.Data)
	if err != nil {
		return nil, ValidationError(imageErrorMessage(err))
	}
	ref, err := s.images.Save(ctx, img)
	if err != nil {
		return nil, ServerError("Failed to store image", err)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"image_url": ref}); err != nil {
		return nil, s.repoError(err, "Failed to update image")
	}
	s.invalidate(ctx, id)
	s.logger.InfoContext(ctx, "community image updated",
		slog.String("community_id", id),
		slog.String("image", ref),
		slog.Int("bytes", len(upload.Data)))
	publish(ctx, s.events, s.logger, pkg.NewEvent(pkg.EventCommunityUpdated, id, actingUserID, []string{"image_url"}))
	return s.load(ctx, id)
}

// load always reads the store so authorization sees the current roster.
func (s *CommunityService) load(ctx context.Context, id string) (*model.Community, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrCommunityNotFound) {
		return nil, NotFoundError(msgCommunityNotFound)
	}
	if err != nil {
		return nil, ServerError("Failed to load community", err)
	}
	return c, nil
}

func (s *CommunityService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *CommunityService) repoError(err error, msg string) error {
	if errors.Is(err, mysql.ErrCommunityNotFound) {
		return NotFoundError(msgCommunityNotFound)
	}
	return ServerError(msg, err)
}

func validVisibility(v string) bool {
	return v == model.VisibilityPublic || v == model.VisibilityPrivate
}

func updatedColumns(updates map[string]any) []string {
	cols := make([]string, 0, len(updates))
	for k := range updates {
		cols = append(cols, k)
	}
	return cols
}

func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return "Image must be 5MB or smaller"
	case errors.Is(err, storage.ErrUnsupportedImage):
		return "Only JPEG, PNG, GIF and WEBP images are allowed"
	default:
		return "Image file is required"
	}
}
