package model

import "time"

// Entry 回忆录条目，归属唯一作者；引擎只关心它的可见性
type Entry struct {
	ID        uint64    `gorm:"primaryKey"`
	AuthorID  uint64    `gorm:"not null;index:idx_author_time"`
	Title     string    `gorm:"size:200;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_author_time"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "entries" }

// VisibilityRecord 单条entry的公开标记，(entry_id, user_id) 唯一
// 没有记录视为私有，除非所属Profile的is_journey_public=true
type VisibilityRecord struct {
	ID           uint64 `gorm:"primaryKey"`
	EntryID      uint64 `gorm:"not null;index;uniqueIndex:uk_entry_user,priority:1"`
	UserID       uint64 `gorm:"not null;index;uniqueIndex:uk_entry_user,priority:2"`
	IsPublic     bool   `gorm:"not null;default:false"`
	MadePublicAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (VisibilityRecord) TableName() string { return "visibility_records" }
