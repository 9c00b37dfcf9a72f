// Package actionlist holds the action-list domain model and its
// persistence layer. An action list is an ordered set of items owned by
// agents; all mutations to a list go through the mutation guard, which
// locks the list as a whole (items are children of the locked list, not
// independently lockable resources).
package actionlist

import (
	"errors"
	"fmt"
	"strings"
)

// ResourceType is the lock-registry resource type for action lists.
const ResourceType = "action-list"

// ErrListNotFound is returned when a list id resolves to nothing.
var ErrListNotFound = errors.New("action list not found")

// ErrItemNotFound is returned when an item id resolves to nothing
// within its list.
var ErrItemNotFound = errors.New("action item not found")

// --- Status enum ---

// Status is the lifecycle state of an action list.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusArchived:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: active, completed, archived", s)
	}
	return nil
}

// --- Records ---

// List is an action list record. Timestamps are UTC RFC3339 strings, as
// stored.
type List struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Item is a single actionable entry inside a list. Position is the
// 1-based display order within the list.
type Item struct {
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ListUpdate holds the partial-update fields for a list. Nil means
// "leave unchanged".
type ListUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Validate checks that an update changes something and that each set
// field is usable.
func (u ListUpdate) Validate() error {
	if u.Title == nil && u.Description == nil && u.Status == nil {
		return fmt.Errorf("update must set at least one field")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if u.Status != nil {
		return ValidateStatus(*u.Status)
	}
	return nil
}
