package models

// Person represents a directory entry using GORM.
// It corresponds to the 'person' table.
type Person struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Age   int    `gorm:"not null" json:"age"`
	Email string `gorm:"not null" json:"email"`
	SexID *uint  `gorm:"index" json:"sex_id,omitempty"` // Nullable foreign key to sex table

	Sex *Sex `gorm:"foreignKey:SexID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"sex,omitempty"` // Belongs to Sex
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "person"
}

// SexName returns the name of the referenced Sex, or "" when none is loaded.
func (p Person) SexName() string {
	if p.Sex == nil {
		return ""
	}
	return p.Sex.Name
}
