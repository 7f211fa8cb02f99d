package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node of the catalog tree. Root categories have no parent.
type Category struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string     `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=2,max=100"`
	Slug          string     `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null" validate:"omitempty,max=100"`
	Description   string     `json:"description" gorm:"type:text"`
	ImageURL      string     `json:"image_url,omitempty" gorm:"type:varchar(500)"`
	ParentID      *string    `json:"parent_id,omitempty" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	DisplayOrder  int        `json:"display_order" gorm:"not null;default:0"`
	Subcategories []Category `json:"subcategories,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// CategoryUpdate is the allow-list of mutable category fields.
type CategoryUpdate struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"image_url" validate:"omitempty,max=500"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order"`
}

func (u CategoryUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	if u.DisplayOrder != nil {
		cols["display_order"] = *u.DisplayOrder
	}
	return cols
}
