package client

import (
	"context"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

// AuthAPI is the authentication surface of the backend. Successful login,
// register and role switch calls arm the client with the returned tokens;
// Logout disarms it whatever the backend answers.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	AddRole(ctx context.Context, role models.Role) error
	SwitchRole(ctx context.Context, role models.Role) (*models.AuthResponse, error)

	SetTokens(t Tokens)
	Tokens() Tokens
	SetSessionListener(l SessionListener)
}

type TreeAPI interface {
	ListTrees(ctx context.Context, f models.TreeFilter) ([]models.Tree, error)
	ListTreeMarkers(ctx context.Context) ([]models.TreeMarker, error)
	GetTree(ctx context.Context, id models.ID) (*models.Tree, error)
	CreateTree(ctx context.Context, in models.NewTreeInput) (*models.Tree, error)
	UpdateTreeStatus(ctx context.Context, id models.ID, status models.TreeStatus) (*models.Tree, error)
	DeleteTree(ctx context.Context, id models.ID) error
}

// FeatureAPI covers the remaining resources. Calls are plain pass-throughs.
type FeatureAPI interface {
	GetUser(ctx context.Context, id models.ID) (*models.User, error)
	UpdateUser(ctx context.Context, id models.ID, in models.ProfileUpdate) (*models.User, error)

	ListWorkOrders(ctx context.Context) ([]models.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id models.ID) (*models.WorkOrder, error)

	ListAvailableTrees(ctx context.Context) ([]models.AvailableTree, error)

	ListCollaborativeTrees(ctx context.Context) ([]models.CollaborativeTree, error)
	JoinCollaborativeTree(ctx context.Context, id models.ID, in models.JoinProjectInput) error

	ListPlanterRatings(ctx context.Context, planterID models.ID) ([]models.Rating, error)
	CreateRating(ctx context.Context, in models.NewRating) (*models.Rating, error)

	ListRaffleCoupons(ctx context.Context, projectID models.ID) ([]models.Coupon, error)

	ListAuditLogs(ctx context.Context) ([]models.AuditLog, error)

	ListPendingModeration(ctx context.Context) ([]models.ModerationItem, error)
	ApproveModeration(ctx context.Context, id models.ID) error
	RejectModeration(ctx context.Context, id models.ID, reason string) error
}

// API is everything the CLI needs from the backend.
type API interface {
	AuthAPI
	TreeAPI
	FeatureAPI
}

var _ API = (*HTTPClient)(nil)
