package models

import "time"

// TreeStatus values are owned by the backend; the client only reflects them.
type TreeStatus string

const (
	TreeStatusUnplanted  TreeStatus = "no_plantado"
	TreeStatusInProgress TreeStatus = "en_proceso"
	TreeStatusPlanted    TreeStatus = "plantado"
	TreeStatusVerified   TreeStatus = "verificado"
	TreeStatusCancelled  TreeStatus = "cancelado"
)

func (s TreeStatus) Valid() bool {
	switch s {
	case TreeStatusUnplanted, TreeStatusInProgress, TreeStatusPlanted, TreeStatusVerified, TreeStatusCancelled:
		return true
	}
	return false
}

type Tree struct {
	ID         ID         `json:"id"`
	Name       string     `json:"name"`
	Country    string     `json:"country"`
	Status     TreeStatus `json:"status"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	PlantedAt  *time.Time `json:"plantedAt,omitempty"`
	UserID     ID         `json:"userId"`
	Dedication string     `json:"dedication,omitempty"`
}

// TreeMarker is the coordinates-only projection used to draw maps.
type TreeMarker struct {
	ID        ID         `json:"id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Status    TreeStatus `json:"status,omitempty"`
}

// NewTreeInput is the payload of POST /trees.
type NewTreeInput struct {
	Name            string  `json:"name"`
	Country         string  `json:"country"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Dedication      string  `json:"dedication,omitempty"`
	AvailableTreeID ID      `json:"availableTreeId,omitempty"`
}

// TreeStats are aggregate counts over the full unfiltered tree list.
type TreeStats struct {
	Total      int `json:"total"`
	Countries  int `json:"countries"`
	Planted    int `json:"planted"`
	InProgress int `json:"inProgress"`
}

// ComputeStats counts trees, distinct countries, planted and in-progress trees.
func ComputeStats(trees []Tree) TreeStats {
	countries := make(map[string]struct{})
	st := TreeStats{Total: len(trees)}
	for _, t := range trees {
		if t.Country != "" {
			countries[t.Country] = struct{}{}
		}
		switch t.Status {
		case TreeStatusPlanted:
			st.Planted++
		case TreeStatusInProgress:
			st.InProgress++
		}
	}
	st.Countries = len(countries)
	return st
}
