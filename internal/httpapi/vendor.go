package httpapi

import (
	"net/http"
	"strconv"

	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/vapi"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Vendor proxy endpoints. The dashboard never talks to the vendor directly;
// these keep the private key server-side and scope every lookup to the
// account's linked assistant.

// linkedAssistantID resolves the caller's assistant id, or aborts.
func (h Handlers) linkedAssistantID(c *gin.Context, uid string) (string, bool) {
	p, err := h.Store.Profile(c.Request.Context(), uid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return "", false
	}
	if p.VapiAssistantID == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no assistant linked to profile"})
		return "", false
	}
	return p.VapiAssistantID, true
}

func (h Handlers) vendorError(c *gin.Context, err error) {
	switch {
	case vapi.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found at vendor"})
	case vapi.IsAuthError(err):
		logger.From(c.Request.Context()).Error("vendor credentials rejected", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "vendor rejected credentials"})
	default:
		logger.From(c.Request.Context()).Error("vendor api call failed", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "vendor api error"})
	}
}

func (h Handlers) GetAssistant(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.linkedAssistantID(c, uid)
	if !ok {
		return
	}
	a, err := h.Vendor.GetAssistant(c.Request.Context(), id)
	if err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) UpdateAssistant(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.linkedAssistantID(c, uid)
	if !ok {
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid patch"})
		return
	}
	a, err := h.Vendor.UpdateAssistant(c.Request.Context(), id, patch)
	if err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// linkedPhoneNumberID resolves the phone-number id through one of the
// account's receptionists; the vendor phone numbers are org-wide, so the
// link is what scopes them.
func (h Handlers) linkedPhoneNumberID(c *gin.Context, uid string) (string, bool) {
	rs, err := h.Store.Receptionists(c.Request.Context(), uid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist list failed"})
		return "", false
	}
	for _, r := range rs {
		if r.VapiPhoneNumberID != "" {
			return r.VapiPhoneNumberID, true
		}
	}
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no phone number linked"})
	return "", false
}

func (h Handlers) GetPhoneNumber(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.linkedPhoneNumberID(c, uid)
	if !ok {
		return
	}
	pn, err := h.Vendor.GetPhoneNumber(c.Request.Context(), id)
	if err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, pn)
}

func (h Handlers) UpdatePhoneNumber(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.linkedPhoneNumberID(c, uid)
	if !ok {
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid patch"})
		return
	}
	pn, err := h.Vendor.UpdatePhoneNumber(c.Request.Context(), id, patch)
	if err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, pn)
}

// ListVendorCalls fetches the assistant's calls straight from the vendor and
// returns them normalized. This is the not-yet-synced view: calls whose
// report delivery has not landed still show up here.
func (h Handlers) ListVendorCalls(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.linkedAssistantID(c, uid)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	calls, err := h.Vendor.ListCalls(ctx, vapi.CallFilters{AssistantID: id, Limit: limit})
	if err != nil {
		h.vendorError(c, err)
		return
	}

	records := make([]callrecord.Record, 0, len(calls))
	for i := range calls {
		records = append(records, h.Normalizer.Record(ctx, &calls[i], callrecord.Hints{}))
	}
	c.JSON(http.StatusOK, gin.H{"calls": records})
}
