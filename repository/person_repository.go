package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/liaowuw/webweek8mvc/database"
	"github.com/liaowuw/webweek8mvc/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPageSize = 10

// PersonRepository handles database operations for Person entities
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

func orderColumn(sortBy string) clause.Column {
	if sortBy == database.SortBySex {
		return clause.Column{Table: "Sex", Name: "name"}
	}
	return clause.Column{Table: clause.CurrentTable, Name: sortBy}
}

// nameFilter lowers both sides in SQL so the pattern and the column are
// folded by the same function.
func nameFilter(filter string) (string, string) {
	return "LOWER(person.name) LIKE LOWER(?)", "%" + filter + "%"
}

// Page returns one page of people whose name contains the filter, ignoring
// case, ordered by the requested column with id as a tie breaker.
func (r *PersonRepository) Page(ctx context.Context, req PageRequest) (Page, error) {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = defaultPageSize
	}
	sortBy, order := database.NormalizeSort(req.SortBy, req.Order)
	where, pattern := nameFilter(req.Filter)

	page := Page{Index: req.Page, Size: req.Size, Items: []models.Person{}}

	err := r.DB.WithContext(ctx).Model(&models.Person{}).Where(where, pattern).Count(&page.Total).Error
	if err != nil {
		return Page{}, fmt.Errorf("failed to count people matching '%s': %w", req.Filter, err)
	}

	// past the last row, or an offset that does not fit in an int
	if req.Page > math.MaxInt/req.Size || int64(req.Page*req.Size) >= page.Total {
		return page, nil
	}

	err = r.DB.WithContext(ctx).
		Joins("Sex").
		Where(where, pattern).
		Order(clause.OrderByColumn{Column: orderColumn(sortBy), Desc: order == database.OrderDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}}).
		Offset(req.Page * req.Size).
		Limit(req.Size).
		Find(&page.Items).Error
	if err != nil {
		return Page{}, fmt.Errorf("failed to list people page %d: %w", req.Page, err)
	}
	return page, nil
}

// Lookup retrieves a person by ID, preloading Sex
func (r *PersonRepository) Lookup(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.WithContext(ctx).Preload("Sex").First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// Update overwrites name, age, email and sex of an existing person inside a
// single transaction. A missing person yields ErrNotFound and no row is written.
func (r *PersonRepository) Update(ctx context.Context, id uint, data models.Person) (uint, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var saved models.Person
		if err := tx.First(&saved, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load person ID %d for update: %w", id, err)
		}

		err := tx.Model(&saved).Updates(map[string]interface{}{
			"name":   data.Name,
			"age":    data.Age,
			"email":  data.Email,
			"sex_id": data.SexID,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update person ID %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes a person by their ID
func (r *PersonRepository) Delete(ctx context.Context, id uint) DeleteResult {
	result := r.DB.WithContext(ctx).Delete(&models.Person{}, id)
	if result.Error != nil {
		return DeleteResult{
			Outcome: DeleteFailed,
			ID:      id,
			Err:     fmt.Errorf("failed to delete person ID %d: %w", id, result.Error),
		}
	}
	if result.RowsAffected == 0 {
		return DeleteResult{Outcome: DeleteNotFound, ID: id}
	}
	return DeleteResult{Outcome: DeleteRemoved, ID: id}
}

// Insert creates a new person record; the database assigns the ID.
func (r *PersonRepository) Insert(ctx context.Context, person *models.Person) (uint, error) {
	person.ID = 0
	err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(person).Error
	if err != nil {
		return 0, fmt.Errorf("failed to create person %s: %w", person.Name, err)
	}
	return person.ID, nil
}
