package models

// Sex is reference data for Person.SexID.
// It corresponds to the 'sex' table.
type Sex struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

// TableName explicitly sets the table name for GORM.
func (Sex) TableName() string {
	return "sex"
}
