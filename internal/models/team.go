package models

// Team groups transactions for reporting purposes.
type Team struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:TeamID" json:"transactions,omitempty"`
}
