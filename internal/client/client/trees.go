package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

type statusPatch struct {
	Status models.TreeStatus `json:"status"`
}

// ListTrees returns the trees matching f; an empty filter lists all visible trees.
func (c *HTTPClient) ListTrees(ctx context.Context, f models.TreeFilter) ([]models.Tree, error) {

	r, err := newRequest(http.MethodGet, "/trees", "/trees", nil, nil)
	if err != nil {
		return nil, err
	}
	r.query = f.Values()

	var trees []models.Tree
	r.out = &trees
	if err := c.send(ctx, r); err != nil {
		return nil, err
	}
	return trees, nil
}

func (c *HTTPClient) ListTreeMarkers(ctx context.Context) ([]models.TreeMarker, error) {
	var markers []models.TreeMarker
	if err := c.call(ctx, http.MethodGet, "/trees/markers", "/trees/markers", nil, &markers); err != nil {
		return nil, err
	}
	return markers, nil
}

func (c *HTTPClient) GetTree(ctx context.Context, id models.ID) (*models.Tree, error) {
	var t models.Tree
	if err := c.call(ctx, http.MethodGet, "/trees/{id}", "/trees/"+escape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) CreateTree(ctx context.Context, in models.NewTreeInput) (*models.Tree, error) {
	var t models.Tree
	if err := c.call(ctx, http.MethodPost, "/trees", "/trees", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTreeStatus sends only the status field.
func (c *HTTPClient) UpdateTreeStatus(ctx context.Context, id models.ID, status models.TreeStatus) (*models.Tree, error) {
	var t models.Tree
	if err := c.call(ctx, http.MethodPut, "/trees/{id}", "/trees/"+escape(id), statusPatch{Status: status}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTree(ctx context.Context, id models.ID) error {
	return c.call(ctx, http.MethodDelete, "/trees/{id}", "/trees/"+escape(id), nil, nil)
}
