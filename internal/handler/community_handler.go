package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"community_hub/internal/middleware"
	"community_hub/internal/model"
	"community_hub/internal/service"
	"community_hub/internal/storage"

	"github.com/gin-gonic/gin"
)

// CommunityService is implemented by *service.CommunityService.
type CommunityService interface {
	Create(ctx context.Context, ownerID string, in service.CreateCommunityInput) (*model.Community, error)
	List(ctx context.Context, viewerID string) ([]model.Community, error)
	Get(ctx context.Context, id string) (*model.Community, error)
	Update(ctx context.Context, actingUserID, id string, in service.UpdateCommunityInput) (*model.Community, error)
	Delete(ctx context.Context, actingUserID, id string) error
	AddMember(ctx context.Context, actingUserID, id string, in service.AddMemberInput) (*model.Community, error)
	RemoveMember(ctx context.Context, actingUserID, id, userID string) (*model.Community, error)
	UploadImage(ctx context.Context, actingUserID, id string, upload service.ImageUpload) (*model.Community, error)
}

type CommunityHandler struct {
	svc CommunityService
}

func NewCommunityHandler(svc CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

type CommunityCreateReq struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Description *string `json:"description"`
	Visibility  string  `json:"visibility" validate:"omitempty,oneof=public private"`
	ImageURL    *string `json:"imageUrl"`
}

type CommunityUpdateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	ImageURL    *string `json:"imageUrl"`
}

type AddMemberReq struct {
	UserID   string  `json:"userId" validate:"required"`
	Role     string  `json:"role" validate:"omitempty,oneof=member admin"`
	Nickname *string `json:"nickname"`
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if !bindJSON(c, &req) {
		return
	}

	community, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.CreateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, withImage(c, community), "Community created")
}

func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]model.Community, 0, len(list))
	for i := range list {
		out = append(out, *withImage(c, &list[i]))
	}
	respond(c, http.StatusOK, out, "")
}

func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withImage(c, community), "")
}

func (h *CommunityHandler) Update(c *gin.Context) {
	var req CommunityUpdateReq
	if !bindJSON(c, &req) {
		return
	}

	community, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.UpdateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withImage(c, community), "Community updated")
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Community deleted")
}

func (h *CommunityHandler) AddMember(c *gin.Context) {
	var req AddMemberReq
	if !bindJSON(c, &req) {
		return
	}

	community, err := h.svc.AddMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.AddMemberInput{
		UserID:   req.UserID,
		Role:     req.Role,
		Nickname: req.Nickname,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withImage(c, community), "Member added")
}

func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	community, err := h.svc.RemoveMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withImage(c, community), "Member removed")
}

// UploadImage reads the multipart "image" field. A request without a usable
// file is passed on as an empty upload, and oversize files are passed on
// truncated, so the ownership check always runs before content checks.
func (h *CommunityHandler) UploadImage(c *gin.Context) {
	var upload service.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		data, err := readUpload(fh)
		if err != nil {
			respondError(c, service.ServerError("Failed to read image", err))
			return
		}
		upload = service.ImageUpload{Filename: fh.Filename, Data: data}
	}

	community, err := h.svc.UploadImage(c.Request.Context(), middleware.UserID(c), c.Param("id"), upload)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withImage(c, community), "Community image updated")
}

// readUpload reads at most one byte past the size limit; the service rejects
// anything longer.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
}

// withImage returns a copy of community whose image reference is absolute.
func withImage(c *gin.Context, community *model.Community) *model.Community {
	out := *community
	out.ImageURL = resolveImageURL(c, community.ImageURL)
	return &out
}

// resolveImageURL leaves http(s) URLs alone and prefixes relative paths with
// the scheme and host the request came in on.
func resolveImageURL(c *gin.Context, ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	if strings.HasPrefix(*ref, "http://") || strings.HasPrefix(*ref, "https://") {
		return ref
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		switch p := strings.ToLower(strings.TrimSpace(strings.SplitN(proto, ",", 2)[0])); p {
		case "http", "https":
			scheme = p
		}
	}
	path := *ref
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	resolved := scheme + "://" + c.Request.Host + path
	return &resolved
}
