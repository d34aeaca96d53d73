package httpapi

import (
	"errors"
	"net/http"
	"time"

	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/store"

	"github.com/gin-gonic/gin"
)

// ListCalls returns the account's call log, newest first. Query params:
// receptionist_id, label, since, until (RFC3339). The unfiltered list is
// served from cache when possible.
func (h Handlers) ListCalls(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	f := store.CallFilter{
		ReceptionistID: c.Query("receptionist_id"),
		Label:          callrecord.Label(c.Query("label")),
	}
	if f.Label != "" && !f.Label.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid label"})
		return
	}
	var err error
	if f.Since, err = parseTimeQuery(c, "since"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
		return
	}
	if f.Until, err = parseTimeQuery(c, "until"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid until timestamp"})
		return
	}

	unfiltered := f == (store.CallFilter{})
	if unfiltered && h.Cache != nil {
		if calls, hit := h.Cache.Get(ctx, uid); hit {
			c.JSON(http.StatusOK, gin.H{"calls": calls, "cached": true})
			return
		}
	}

	calls, err := h.Store.Calls(ctx, uid, f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call list failed"})
		return
	}
	if unfiltered && h.Cache != nil {
		h.Cache.Set(ctx, uid, calls)
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h Handlers) GetCall(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	call, err := h.Store.CallForUser(c.Request.Context(), uid, c.Param("call_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, call)
}

// UpdateCall patches the client-mutable fields (label, transcript, metadata).
func (h Handlers) UpdateCall(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	var upd store.CallUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	callID := c.Param("call_id")
	call, err := h.Store.UpdateCall(ctx, uid, callID, upd)
	switch {
	case errors.Is(err, store.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid label"})
		return
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call update failed"})
		return
	}

	h.auditCallChange(ctx, uid, callID, "call updated")
	h.invalidateCalls(ctx, uid)
	c.JSON(http.StatusOK, call)
}

func (h Handlers) DeleteCall(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	callID := c.Param("call_id")
	err := h.Store.DeleteCall(ctx, uid, callID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call delete failed"})
		return
	}

	h.auditCallChange(ctx, uid, callID, "call deleted")
	h.invalidateCalls(ctx, uid)
	c.Status(http.StatusNoContent)
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
