package repository

import (
	"context"
	"errors"

	"github.com/liaowuw/webweek8mvc/models"
)

// ErrNotFound is returned when an operation targets a row that does not exist.
var ErrNotFound = errors.New("record not found")

// PersonStore defines the Record Store operations on person rows
type PersonStore interface {
	Page(ctx context.Context, req PageRequest) (Page, error)
	Lookup(ctx context.Context, id uint) (*models.Person, error)
	Update(ctx context.Context, id uint, data models.Person) (uint, error)
	Delete(ctx context.Context, id uint) DeleteResult
	Insert(ctx context.Context, person *models.Person) (uint, error)
}

// SexOptionProvider supplies the Sex reference data for select inputs
type SexOptionProvider interface {
	Options(ctx context.Context) ([]SexOption, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// PageRequest describes one page of the filtered, sorted person list.
type PageRequest struct {
	Page   int
	Size   int
	SortBy string
	Order  string
	Filter string
}

// Page is a single page of people plus the total number of matching rows.
type Page struct {
	Items []models.Person
	Total int64
	Index int
	Size  int
}

func (p Page) HasPrev() bool {
	return p.Index > 0
}

func (p Page) HasNext() bool {
	if p.Size <= 0 {
		return false
	}
	return int64(p.Index) < (p.Total-1)/int64(p.Size)
}

// From is the 1-based position of the first item on the page, 0 when empty.
func (p Page) From() int64 {
	if len(p.Items) == 0 {
		return 0
	}
	return int64(p.Index)*int64(p.Size) + 1
}

// To is the 1-based position of the last item on the page, 0 when empty.
func (p Page) To() int64 {
	if len(p.Items) == 0 {
		return 0
	}
	return int64(p.Index)*int64(p.Size) + int64(len(p.Items))
}

type DeleteOutcome int

const (
	DeleteRemoved DeleteOutcome = iota
	DeleteNotFound
	DeleteFailed
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteRemoved:
		return "removed"
	case DeleteNotFound:
		return "not_found"
	case DeleteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeleteResult tells a caller whether a delete removed a row, found nothing,
// or failed. Err is only set for DeleteFailed.
type DeleteResult struct {
	Outcome DeleteOutcome
	ID      uint
	Err     error
}

// SexOption is one entry of the ordered id -> name option list.
type SexOption struct {
	ID   string
	Name string
}
