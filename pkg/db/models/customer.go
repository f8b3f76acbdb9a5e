package models

import "time"

// Customer is optional on a sale; a customer may exist with no sales.
type Customer struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	Email     *string   `gorm:"column:email;size:100" json:"email,omitempty"`
	Phone     *string   `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Address   *string   `gorm:"column:address;size:200" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
