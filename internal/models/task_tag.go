package models

import "time"

type TaskTag struct {
	TaskID    uint64    `gorm:"primarykey" json:"taskId"`
	Name      string    `gorm:"primarykey;type:varchar(50)" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
