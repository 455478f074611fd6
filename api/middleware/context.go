package middleware

import (
	"context"

	"github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/enums"
)

type contextKey string

const (
	ctxEmail        contextKey = "email"
	ctxOrgID        contextKey = "org_id"
	ctxCostCenterID contextKey = "cost_center_id"
	ctxRole         contextKey = "actor_role"
)

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

func OrgIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOrgID).(string); ok {
		return v
	}
	return ""
}

func CostCenterIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCostCenterID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return enums.ActorRole(v)
	}
	return ""
}

// ActorFromContext assembles the authenticated actor for service calls.
func ActorFromContext(ctx context.Context) savedcarts.Actor {
	return savedcarts.Actor{
		Email:        EmailFromContext(ctx),
		OrgID:        OrgIDFromContext(ctx),
		CostCenterID: CostCenterIDFromContext(ctx),
		Role:         RoleFromContext(ctx),
	}
}

// WithActor injects actor identity into the context, mainly for tests.
func WithActor(ctx context.Context, actor savedcarts.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxEmail, actor.Email)
	ctx = context.WithValue(ctx, ctxOrgID, actor.OrgID)
	ctx = context.WithValue(ctx, ctxCostCenterID, actor.CostCenterID)
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
