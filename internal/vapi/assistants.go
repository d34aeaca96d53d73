package vapi

import (
	"context"
	"net/http"
)

// Assistant CRUD against the vendor API.

func (c *Client) GetAssistant(ctx context.Context, assistantID string) (Assistant, error) {
	var out Assistant
	err := c.do(ctx, http.MethodGet, "assistant/"+assistantID, nil, nil, &out, opRead)
	return out, err
}

func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var out []Assistant
	err := c.do(ctx, http.MethodGet, "assistant", nil, nil, &out, opRead)
	return out, err
}

func (c *Client) CreateAssistant(ctx context.Context, a Assistant) (Assistant, error) {
	var out Assistant
	err := c.do(ctx, http.MethodPost, "assistant", nil, a, &out, opWrite)
	return out, err
}

// UpdateAssistant sends a partial update. The patch is a plain map so only
// the fields the caller set are serialized; zero-valued struct fields must
// not clobber vendor-side settings.
func (c *Client) UpdateAssistant(ctx context.Context, assistantID string, patch map[string]any) (Assistant, error) {
	var out Assistant
	err := c.do(ctx, http.MethodPatch, "assistant/"+assistantID, nil, patch, &out, opWrite)
	return out, err
}
