package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

func (c *HTTPClient) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/users/{id}", "/users/"+escape(id), nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id models.ID, in models.ProfileUpdate) (*models.User, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPut, "/users/{id}", "/users/"+escape(id), in, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *HTTPClient) ListWorkOrders(ctx context.Context) ([]models.WorkOrder, error) {
	var list []models.WorkOrder
	if err := c.call(ctx, http.MethodGet, "/work-orders", "/work-orders", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetWorkOrder(ctx context.Context, id models.ID) (*models.WorkOrder, error) {
	var o models.WorkOrder
	if err := c.call(ctx, http.MethodGet, "/work-orders/{id}", "/work-orders/"+escape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *HTTPClient) ListAvailableTrees(ctx context.Context) ([]models.AvailableTree, error) {
	var list []models.AvailableTree
	if err := c.call(ctx, http.MethodGet, "/available-trees", "/available-trees", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListCollaborativeTrees(ctx context.Context) ([]models.CollaborativeTree, error) {
	var list []models.CollaborativeTree
	if err := c.call(ctx, http.MethodGet, "/collaborative-trees", "/collaborative-trees", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) JoinCollaborativeTree(ctx context.Context, id models.ID, in models.JoinProjectInput) error {
	return c.call(ctx, http.MethodPost, "/collaborative-trees/{id}/join", "/collaborative-trees/"+escape(id)+"/join", in, nil)
}

func (c *HTTPClient) ListPlanterRatings(ctx context.Context, planterID models.ID) ([]models.Rating, error) {
	var list []models.Rating
	if err := c.call(ctx, http.MethodGet, "/ratings/planter/{planterId}", "/ratings/planter/"+escape(planterID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateRating(ctx context.Context, in models.NewRating) (*models.Rating, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var r models.Rating
	if err := c.call(ctx, http.MethodPost, "/ratings", "/ratings", in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) ListRaffleCoupons(ctx context.Context, projectID models.ID) ([]models.Coupon, error) {
	var list []models.Coupon
	if err := c.call(ctx, http.MethodGet, "/raffle/{projectId}/coupons", "/raffle/"+escape(projectID)+"/coupons", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListAuditLogs(ctx context.Context) ([]models.AuditLog, error) {
	var list []models.AuditLog
	if err := c.call(ctx, http.MethodGet, "/audit/logs", "/audit/logs", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ListPendingModeration(ctx context.Context) ([]models.ModerationItem, error) {
	var list []models.ModerationItem
	if err := c.call(ctx, http.MethodGet, "/moderation/pending", "/moderation/pending", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ApproveModeration(ctx context.Context, id models.ID) error {
	return c.call(ctx, http.MethodPost, "/moderation/{id}/approve", "/moderation/"+escape(id)+"/approve", nil, nil)
}

func (c *HTTPClient) RejectModeration(ctx context.Context, id models.ID, reason string) error {
	var in any
	if reason != "" {
		in = map[string]string{"reason": reason}
	}
	return c.call(ctx, http.MethodPost, "/moderation/{id}/reject", "/moderation/"+escape(id)+"/reject", in, nil)
}
