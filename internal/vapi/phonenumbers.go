package vapi

import (
	"context"
	"net/http"
)

func (c *Client) GetPhoneNumber(ctx context.Context, phoneNumberID string) (PhoneNumber, error) {
	var out PhoneNumber
	err := c.do(ctx, http.MethodGet, "phone-number/"+phoneNumberID, nil, nil, &out, opRead)
	return out, err
}

func (c *Client) CreatePhoneNumber(ctx context.Context, pn PhoneNumber) (PhoneNumber, error) {
	var out PhoneNumber
	err := c.do(ctx, http.MethodPost, "phone-number", nil, pn, &out, opWrite)
	return out, err
}

// UpdatePhoneNumber patches a number, typically to point it at an assistant.
func (c *Client) UpdatePhoneNumber(ctx context.Context, phoneNumberID string, patch map[string]any) (PhoneNumber, error) {
	var out PhoneNumber
	err := c.do(ctx, http.MethodPatch, "phone-number/"+phoneNumberID, nil, patch, &out, opWrite)
	return out, err
}
