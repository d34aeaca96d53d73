package webhook

import (
	"context"
	"errors"
	"net/http"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/store"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Store is the persistence surface the handler needs. Both *store.Store and
// *store.Memory satisfy it.
type Store interface {
	ProfileByAssistantID(ctx context.Context, assistantID string) (store.Profile, error)
	GetOrCreateReceptionist(ctx context.Context, userID string) (store.Receptionist, error)
	UpsertIngestedCall(ctx context.Context, receptionistID string, rec callrecord.Record) (store.Call, error)
	UpdateTranscriptByVendorID(ctx context.Context, receptionistID, vendorCallID, transcript string) error
}

// Invalidator drops cached call projections after a write. Invalidation is
// best-effort; a cache miss is always safe.
type Invalidator interface {
	InvalidateCalls(ctx context.Context, userID string)
}

// Handler ingests vendor webhook deliveries.
//
// The vendor retries failed deliveries and may deliver the same event more
// than once, so every write path below is idempotent. Responses carry
// diagnostic fields (payloadKeys, hint) because the vendor dashboard surfaces
// the response body to the operator debugging a misconfigured webhook.
type Handler struct {
	Store      Store
	Normalizer *callrecord.Normalizer
	Audit      *audit.Service
	Cache      Invalidator
}

func (h *Handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.From(ctx)

	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	env, err := Parse(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	event := env.EventType()
	if !RequiresIdentifiers(event) {
		// Status pings, model output, function calls and the like. Ack so
		// the vendor does not retry.
		log.Debug("webhook event needs no action", "event", event)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"event":   event,
			"message": "event received but no action needed",
		})
		return
	}

	assistantID := env.AssistantID()
	if assistantID == "" {
		log.Warn("webhook missing assistant id", "event", event, "payload_keys", env.PayloadKeys())
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":       "no assistant ID in webhook",
			"eventType":   event,
			"payloadKeys": env.PayloadKeys(),
			"hint":        "check if assistant.id is in the payload",
		})
		return
	}
	callID := env.CallID()
	if callID == "" {
		log.Warn("webhook missing call id", "event", event)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "no call ID in webhook",
			"eventType": event,
		})
		return
	}

	profile, err := h.Store.ProfileByAssistantID(ctx, assistantID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("no profile for assistant", "assistant_id", assistantID, "event", event)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":       "user profile not found",
			"assistantId": assistantID,
			"hint":        "link the assistant ID to a user profile first",
		})
		return
	}
	if err != nil {
		log.Error("profile lookup failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}

	rcp, err := h.Store.GetOrCreateReceptionist(ctx, profile.ID)
	if err != nil {
		log.Error("receptionist lookup failed", "error", err, "user_id", profile.ID)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "receptionist lookup failed"})
		return
	}

	switch {
	case IsReport(event):
		rec := h.Normalizer.Record(ctx, env.CallData(), env.Hints())
		stored, err := h.Store.UpsertIngestedCall(ctx, rcp.ID, rec)
		if err != nil {
			log.Error("call ingestion failed", "error", err, "vapi_call_id", callID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call ingestion failed"})
			return
		}
		log.Info("call ingested",
			"event", event,
			"vapi_call_id", callID,
			"call_id", stored.ID,
			"duration_seconds", rec.DurationSeconds,
			"label", rec.Label,
		)
		h.recordIngestion(ctx, profile.ID, event, rcp.ID, callID, stored.ID)
		h.invalidate(ctx, profile.ID)

	case IsTranscript(event):
		text := env.TranscriptText()
		if text == "" {
			log.Debug("transcript event without text", "event", event, "vapi_call_id", callID)
			break
		}
		err := h.Store.UpdateTranscriptByVendorID(ctx, rcp.ID, callID, text)
		if errors.Is(err, store.ErrNotFound) {
			// The report for this call has not arrived yet. Live transcript
			// fragments are not worth buffering; the report carries the
			// full transcript anyway.
			log.Debug("no stored call for transcript update", "vapi_call_id", callID)
			break
		}
		if err != nil {
			log.Error("transcript update failed", "error", err, "vapi_call_id", callID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcript update failed"})
			return
		}
		h.recordTranscript(ctx, profile.ID, event, rcp.ID, callID)
		h.invalidate(ctx, profile.ID)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event, "callId": callID})
}

func (h *Handler) recordIngestion(ctx context.Context, userID, event, receptionistID, vendorCallID, callID string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogIngestion(ctx, userID, event, receptionistID, vendorCallID, callID); err != nil {
		logger.From(ctx).Warn("audit append failed", "error", err)
	}
}

func (h *Handler) recordTranscript(ctx context.Context, userID, event, receptionistID, vendorCallID string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogTranscriptUpdate(ctx, userID, event, receptionistID, vendorCallID); err != nil {
		logger.From(ctx).Warn("audit append failed", "error", err)
	}
}

func (h *Handler) invalidate(ctx context.Context, userID string) {
	if h.Cache == nil {
		return
	}
	h.Cache.InvalidateCalls(ctx, userID)
}
