// Package records holds the missing-person record model and its persistence.
// Records are created once and never updated; user submissions may be deleted.
package records

import (
	"context"
	"errors"
	"time"
)

type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "U"
)

type Category string

const (
	CategoryMissingChild Category = "missing_child"
	CategoryRunaway      Category = "runaway"
	CategoryFacility     Category = "facility"
	CategoryDisabled     Category = "disabled"
	CategoryDementia     Category = "dementia"
	CategoryUnknown      Category = "unknown"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMissingChild, CategoryRunaway, CategoryFacility,
		CategoryDisabled, CategoryDementia, CategoryUnknown:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

type Source string

const (
	SourceAPI        Source = "api"
	SourceUserReport Source = "user_report"
)

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Physical carries the optional descriptive fields.
type Physical struct {
	Height    int    `json:"height,omitempty"`
	Weight    int    `json:"weight,omitempty"`
	BodyType  string `json:"body_type,omitempty"`
	FaceShape string `json:"face_shape,omitempty"`
	HairStyle string `json:"hair_style,omitempty"`
	HairColor string `json:"hair_color,omitempty"`
	Clothing  string `json:"clothing,omitempty"`
}

// Reporter identifies who submitted a user_report record.
type Reporter struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type MissingPerson struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Gender      Gender    `json:"gender"`
	Location    Location  `json:"location"`
	PhotoURL    *string   `json:"photo_url"`
	Description string    `json:"description"`
	MissingDate time.Time `json:"missing_date"`
	Category    Category  `json:"category"`
	Status      Status    `json:"status"`
	Source      Source    `json:"source"`
	Physical    Physical  `json:"physical"`
	Reporter    *Reporter `json:"reporter,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Category Category
	Status   Status
	Source   Source
	Limit    int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}

func (f Filter) match(p MissingPerson) bool {
	return (f.Category == "" || p.Category == f.Category) &&
		(f.Status == "" || p.Status == f.Status) &&
		(f.Source == "" || p.Source == f.Source)
}

var (
	ErrNotFound = errors.New("missing person not found")
	ErrExists   = errors.New("missing person already exists")
)

// Store is the persistence contract for missing-person records.
type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Create inserts p as-is and returns ErrExists when the id is taken.
	Create(ctx context.Context, p MissingPerson) (MissingPerson, error)
	Get(ctx context.Context, id string) (MissingPerson, error)
	// List returns records newest first.
	List(ctx context.Context, f Filter) ([]MissingPerson, error)
	Delete(ctx context.Context, id string) error
}
