package models

import (
	"errors"
	"time"
)

// WorkOrder tracks the physical planting pipeline of one tree.
type WorkOrder struct {
	ID        ID         `json:"id"`
	TreeID    ID         `json:"treeId"`
	PlanterID ID         `json:"planterId,omitempty"`
	ViveroID  ID         `json:"viveroId,omitempty"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// AvailableTree is a catalog entry offered by a nursery.
type AvailableTree struct {
	ID       ID      `json:"id"`
	Species  string  `json:"species"`
	Country  string  `json:"country"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	ViveroID ID      `json:"viveroId,omitempty"`
}

// CollaborativeTree is a crowd-funded planting project.
type CollaborativeTree struct {
	ID           ID      `json:"id"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	GoalAmount   float64 `json:"goalAmount"`
	RaisedAmount float64 `json:"raisedAmount"`
	Participants int     `json:"participants"`
	Status       string  `json:"status"`
}

// JoinProjectInput is the payload of POST /collaborative-trees/{id}/join.
type JoinProjectInput struct {
	Amount float64 `json:"amount"`
}

type Rating struct {
	ID        ID         `json:"id"`
	PlanterID ID         `json:"planterId"`
	UserID    ID         `json:"userId"`
	Score     int        `json:"score"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

var ErrInvalidScore = errors.New("score must be between 1 and 5")

// NewRating is the payload of POST /ratings.
type NewRating struct {
	PlanterID ID     `json:"planterId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
}

func (r NewRating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return ErrInvalidScore
	}
	return nil
}

// Coupon is a raffle ticket earned by joining a collaborative project.
type Coupon struct {
	ID        ID     `json:"id"`
	ProjectID ID     `json:"projectId"`
	UserID    ID     `json:"userId"`
	Code      string `json:"code"`
	Winner    bool   `json:"winner"`
}

type AuditLog struct {
	ID        ID         `json:"id"`
	Actor     string     `json:"actor"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity"`
	EntityID  ID         `json:"entityId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ModerationItem is user content waiting for an admin decision.
type ModerationItem struct {
	ID        ID         `json:"id"`
	Kind      string     `json:"kind"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}
