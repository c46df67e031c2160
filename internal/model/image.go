package model

import "time"

// Extensions — допустимые расширения файлов изображений.
var Extensions = []string{"jpg", "jpeg", "png", "gif"}

// ValidExtension сообщает, входит ли ext в перечень Extensions.
func ValidExtension(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Image — загруженное пользователем изображение и его позиция на холсте.
type Image struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"userId"` // владелец

	Extension string `gorm:"not null;index" json:"extension"`
	X         int    `gorm:"not null;default:0" json:"x"`
	Y         int    `gorm:"not null;default:0" json:"y"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

// FileName — имя файла блоба изображения.
func (i *Image) FileName() string {
	return i.ID + "." + i.Extension
}

// PositionPatch — частичное обновление позиции. nil-поля не меняются.
type PositionPatch struct {
	X *int
	Y *int
}

// Empty сообщает, что патч ничего не меняет.
func (p PositionPatch) Empty() bool {
	return p.X == nil && p.Y == nil
}

// Updates возвращает карту колонок для gorm Updates.
func (p PositionPatch) Updates() map[string]any {
	m := map[string]any{}
	if p.X != nil {
		m["x"] = *p.X
	}
	if p.Y != nil {
		m["y"] = *p.Y
	}
	return m
}
