package specification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByCollection filters chunks belonging to a named collection
type ByCollection struct {
	Name string
}

func (s ByCollection) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("collection_name = ?", s.Name)
}

// ByDocumentName filters chunks of one source document
type ByDocumentName struct {
	Name string
}

func (s ByDocumentName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_name = ?", s.Name)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
