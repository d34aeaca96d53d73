package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/cache"
	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/store"
	"receptionist-platform/internal/vapi"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Store is the persistence surface the API needs. Both *store.Store and
// *store.Memory satisfy it.
type Store interface {
	Profile(ctx context.Context, id string) (store.Profile, error)
	ProfileByEmail(ctx context.Context, email string) (store.Profile, error)
	CreateProfile(ctx context.Context, p store.Profile) (store.Profile, error)
	LinkAssistant(ctx context.Context, profileID, assistantID string) error

	Receptionists(ctx context.Context, userID string) ([]store.Receptionist, error)
	Receptionist(ctx context.Context, id string) (store.Receptionist, error)
	CreateReceptionist(ctx context.Context, r store.Receptionist) (store.Receptionist, error)
	UpdateReceptionist(ctx context.Context, id string, upd store.ReceptionistUpdate) (store.Receptionist, error)
	DeleteReceptionist(ctx context.Context, id string) error

	Calls(ctx context.Context, userID string, f store.CallFilter) ([]store.Call, error)
	CallForUser(ctx context.Context, userID, callID string) (store.Call, error)
	UpdateCall(ctx context.Context, userID, callID string, upd store.CallUpdate) (store.Call, error)
	DeleteCall(ctx context.Context, userID, callID string) error

	UserMetrics(ctx context.Context, userID string) (store.UserMetrics, error)
	ReceptionistMetrics(ctx context.Context, receptionistID string) (store.ReceptionistMetrics, error)
}

// VendorAPI is the slice of the vendor client the proxy endpoints use.
type VendorAPI interface {
	GetAssistant(ctx context.Context, assistantID string) (vapi.Assistant, error)
	UpdateAssistant(ctx context.Context, assistantID string, patch map[string]any) (vapi.Assistant, error)
	GetPhoneNumber(ctx context.Context, phoneNumberID string) (vapi.PhoneNumber, error)
	UpdatePhoneNumber(ctx context.Context, phoneNumberID string, patch map[string]any) (vapi.PhoneNumber, error)
	ListCalls(ctx context.Context, f vapi.CallFilters) ([]vapi.Call, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal modules, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Store      Store
	Vendor     VendorAPI
	Reports    *reporting.Service
	Cache      *cache.Calls
	Audit      *audit.Service
	Normalizer *callrecord.Normalizer
	Exports    *ExportLimiter
}

// identity pulls the authenticated user id out of the request context, or
// aborts with 401.
func (h Handlers) identity(c *gin.Context) (string, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil || uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return uid, true
}

// --- Auth ---

type loginRequest struct {
	Email string `json:"email"`
}

// Login issues a JWT token pair for a registered profile.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate
// credentials; the identity provider lives outside this service.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil || h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	p, err := h.Store.ProfileByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), p.ID, p.AccountID, p.Email)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type registerRequest struct {
	Email           string `json:"email"`
	VapiAssistantID string `json:"vapi_assistant_id"`
}

// Register creates a profile.
//
// NOTE: Same caveat as Login; the identity provider normally creates profiles
// and this endpoint exists for self-hosted setups without one.
func (h Handlers) RegisterProfile(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.ProfileByEmail(ctx, req.Email); err == nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	p, err := h.Store.CreateProfile(ctx, store.Profile{
		Email:           req.Email,
		VapiAssistantID: req.VapiAssistantID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

type linkAssistantRequest struct {
	VapiAssistantID string `json:"vapi_assistant_id"`
}

// LinkAssistant points the caller's profile at a vendor assistant. Webhook
// deliveries for that assistant start landing on this account immediately.
func (h Handlers) LinkAssistant(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	var req linkAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VapiAssistantID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "vapi_assistant_id required"})
		return
	}
	err := h.Store.LinkAssistant(c.Request.Context(), uid, req.VapiAssistantID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "assistant link failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": true})
}

// Me echoes the authenticated identity; useful for smoke tests.
func (h Handlers) Me(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	acct, _ := auth.AccountID(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "account_id": acct})
}

func (h Handlers) invalidateCalls(ctx context.Context, userID string) {
	if h.Cache == nil {
		return
	}
	h.Cache.InvalidateCalls(ctx, userID)
}

func (h Handlers) auditCallChange(ctx context.Context, userID, callID, message string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogCallChange(ctx, userID, callID, message); err != nil {
		logger.From(ctx).Warn("audit append failed", "error", err)
	}
}
