package httpapi

import (
	"errors"
	"net/http"

	"receptionist-platform/internal/store"

	"github.com/gin-gonic/gin"
)

// ownedReceptionist loads a receptionist and enforces ownership. A foreign id
// reads as not-found so the API never confirms another tenant's ids.
func (h Handlers) ownedReceptionist(c *gin.Context, uid string) (store.Receptionist, bool) {
	r, err := h.Store.Receptionist(c.Request.Context(), c.Param("receptionist_id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && r.UserID != uid) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "receptionist not found"})
		return store.Receptionist{}, false
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist lookup failed"})
		return store.Receptionist{}, false
	}
	return r, true
}

func (h Handlers) ListReceptionists(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	rs, err := h.Store.Receptionists(c.Request.Context(), uid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receptionists": rs})
}

func (h Handlers) GetReceptionist(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	r, ok := h.ownedReceptionist(c, uid)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}

type createReceptionistRequest struct {
	Name              string `json:"name"`
	PhoneNumber       string `json:"phone_number"`
	VapiAssistantID   string `json:"vapi_assistant_id"`
	VapiPhoneNumberID string `json:"vapi_phone_number_id"`
}

func (h Handlers) CreateReceptionist(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	var req createReceptionistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	r, err := h.Store.CreateReceptionist(c.Request.Context(), store.Receptionist{
		UserID:            uid,
		Name:              req.Name,
		PhoneNumber:       req.PhoneNumber,
		VapiAssistantID:   req.VapiAssistantID,
		VapiPhoneNumberID: req.VapiPhoneNumberID,
	})
	if errors.Is(err, store.ErrInvalidArgument) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid receptionist"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist create failed"})
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h Handlers) UpdateReceptionist(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	if _, ok := h.ownedReceptionist(c, uid); !ok {
		return
	}
	var upd store.ReceptionistUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	r, err := h.Store.UpdateReceptionist(c.Request.Context(), c.Param("receptionist_id"), upd)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "receptionist not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist update failed"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h Handlers) DeleteReceptionist(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	if _, ok := h.ownedReceptionist(c, uid); !ok {
		return
	}
	if err := h.Store.DeleteReceptionist(c.Request.Context(), c.Param("receptionist_id")); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist delete failed"})
		return
	}
	h.invalidateCalls(c.Request.Context(), uid)
	c.Status(http.StatusNoContent)
}

// --- Metrics ---

// UserMetrics returns lifetime account figures from the SQL-side aggregate.
func (h Handlers) UserMetrics(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	m, err := h.Store.UserMetrics(c.Request.Context(), uid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "metrics lookup failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) ReceptionistMetrics(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	r, ok := h.ownedReceptionist(c, uid)
	if !ok {
		return
	}
	m, err := h.Store.ReceptionistMetrics(c.Request.Context(), r.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "metrics lookup failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}
