package vapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CallFilters mirror the vendor's call list query parameters.
// Zero values are omitted.
type CallFilters struct {
	ID            string
	AssistantID   string
	PhoneNumberID string
	Limit         int

	CreatedAtGt string
	CreatedAtLt string
	CreatedAtGe string
	CreatedAtLe string
	UpdatedAtGt string
	UpdatedAtLt string
	UpdatedAtGe string
	UpdatedAtLe string
}

func (f CallFilters) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("id", f.ID)
	set("assistantId", f.AssistantID)
	set("phoneNumberId", f.PhoneNumberID)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	set("createdAtGt", f.CreatedAtGt)
	set("createdAtLt", f.CreatedAtLt)
	set("createdAtGe", f.CreatedAtGe)
	set("createdAtLe", f.CreatedAtLe)
	set("updatedAtGt", f.UpdatedAtGt)
	set("updatedAtLt", f.UpdatedAtLt)
	set("updatedAtGe", f.UpdatedAtGe)
	set("updatedAtLe", f.UpdatedAtLe)
	return q
}

func (c *Client) GetCall(ctx context.Context, callID string) (Call, error) {
	var out Call
	err := c.do(ctx, http.MethodGet, "call/"+callID, nil, nil, &out, opRead)
	return out, err
}

// ListCalls returns calls matching the filters. The vendor returns a bare
// JSON array, not an envelope.
func (c *Client) ListCalls(ctx context.Context, f CallFilters) ([]Call, error) {
	var out []Call
	err := c.do(ctx, http.MethodGet, "call", f.query(), nil, &out, opRead)
	return out, err
}

// CreateCallRequest starts an outbound call.
type CreateCallRequest struct {
	AssistantID   string         `json:"assistantId"`
	PhoneNumberID string         `json:"phoneNumberId,omitempty"`
	Customer      *Customer      `json:"customer,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (Call, error) {
	var out Call
	err := c.do(ctx, http.MethodPost, "call", nil, req, &out, opWrite)
	return out, err
}
