package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"community_hub/internal/middleware"
	"community_hub/internal/model"
	"community_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- fakes ----

type fakeUserService struct {
	createFn  func(service.CreateUserInput) (*model.User, error)
	loginFn   func(email, password string) (*service.LoginResult, error)
	profileFn func(id string) (*model.User, error)
	updateFn  func(id string, in service.UpdateUserInput) (*model.User, error)
	archiveFn func(id string) error
	listFn    func(page, limit int) (*service.UserPage, error)
}

func (f *fakeUserService) CreateUser(_ context.Context, in service.CreateUserInput) (*model.User, error) {
	if f.createFn != nil {
		return f.createFn(in)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeUserService) Login(_ context.Context, email, password string) (*service.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeUserService) GetProfile(_ context.Context, id string) (*model.User, error) {
	if f.profileFn != nil {
		return f.profileFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeUserService) UpdateUser(_ context.Context, id string, in service.UpdateUserInput) (*model.User, error) {
	if f.updateFn != nil {
		return f.updateFn(id, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeUserService) ArchiveUser(_ context.Context, id string) error {
	if f.archiveFn != nil {
		return f.archiveFn(id)
	}
	return fmt.Errorf("not configured")
}

func (f *fakeUserService) ListUsers(_ context.Context, page, limit int) (*service.UserPage, error) {
	if f.listFn != nil {
		return f.listFn(page, limit)
	}
	return nil, fmt.Errorf("not configured")
}

type fakeCommunityService struct {
	createFn       func(ownerID string, in service.CreateCommunityInput) (*model.Community, error)
	listFn         func(viewerID string) ([]model.Community, error)
	getFn          func(id string) (*model.Community, error)
	updateFn       func(actor, id string, in service.UpdateCommunityInput) (*model.Community, error)
	deleteFn       func(actor, id string) error
	addMemberFn    func(actor, id string, in service.AddMemberInput) (*model.Community, error)
	removeMemberFn func(actor, id, userID string) (*model.Community, error)
	uploadFn       func(actor, id string, upload service.ImageUpload) (*model.Community, error)
}

func (f *fakeCommunityService) Create(_ context.Context, ownerID string, in service.CreateCommunityInput) (*model.Community, error) {
	if f.createFn != nil {
		return f.createFn(ownerID, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) List(_ context.Context, viewerID string) ([]model.Community, error) {
	if f.listFn != nil {
		return f.listFn(viewerID)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) Get(_ context.Context, id string) (*model.Community, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) Update(_ context.Context, actor, id string, in service.UpdateCommunityInput) (*model.Community, error) {
	if f.updateFn != nil {
		return f.updateFn(actor, id, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) Delete(_ context.Context, actor, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(actor, id)
	}
	return fmt.Errorf("not configured")
}

func (f *fakeCommunityService) AddMember(_ context.Context, actor, id string, in service.AddMemberInput) (*model.Community, error) {
	if f.addMemberFn != nil {
		return f.addMemberFn(actor, id, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) RemoveMember(_ context.Context, actor, id, userID string) (*model.Community, error) {
	if f.removeMemberFn != nil {
		return f.removeMemberFn(actor, id, userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (f *fakeCommunityService) UploadImage(_ context.Context, actor, id string, upload service.ImageUpload) (*model.Community, error) {
	if f.uploadFn != nil {
		return f.uploadFn(actor, id, upload)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	}
}

func newUserTestRouter(svc UserService, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(svc)
	users := r.Group("/api/users")
	users.POST("", h.Create)
	users.GET("", h.List)
	users.POST("/login", h.Login)
	users.POST("/signout", h.Signout)
	users.GET("/profile", fakeAuthUser(authUserID), h.Profile)
	users.GET("/:id", h.Profile)
	users.PUT("/:id", h.Update)
	users.DELETE("/:id", h.Archive)
	return r
}

func newCommunityTestRouter(svc CommunityService, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthUser(authUserID))
	h := NewCommunityHandler(svc)
	g := r.Group("/api/communities")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/image", h.UploadImage)
	g.POST("/:id/members", h.AddMember)
	g.DELETE("/:id/members/:userId", h.RemoveMember)
	return r
}

func doRequest(router http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func strPtr(s string) *string { return &s }
