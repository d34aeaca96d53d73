package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxAccountID
)

func WithIdentity(ctx context.Context, userID, accountID string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxAccountID, accountID)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func AccountID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxAccountID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("account_id not in context")
}
