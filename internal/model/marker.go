package model

import "time"

// Marker — точка аннотации. Без ImageID маркер лежит на общем холсте.
// У маркера всегда есть хотя бы один Comment.
type Marker struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	ImageID *string `gorm:"type:uuid;index" json:"imageId,omitempty"`

	X int `gorm:"not null;default:0" json:"x"`
	Y int `gorm:"not null;default:0" json:"y"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

// Comment — сообщение в ветке маркера.
type Comment struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MarkerID string `gorm:"type:uuid;not null;index" json:"markerId"`
	UserID   string `gorm:"type:uuid;not null;index" json:"userId"` // автор

	Text string `gorm:"not null" json:"text"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}
