package model

import "time"

// Profile 公开主页，用户开启分享后创建，一人一条
type Profile struct {
	ID                   uint64 `gorm:"primaryKey"`
	UserID               uint64 `gorm:"uniqueIndex;not null"`
	Handle               string `gorm:"uniqueIndex;size:30;not null"`
	DisplayName          string `gorm:"size:64;not null"`
	IsJourneyPublic      bool   `gorm:"not null;default:false"` // 整个journey公开，所有entry可见
	AllowSpecificEntries bool   `gorm:"not null;default:false"` // 允许单独公开某些entry
	IsActive             bool   `gorm:"not null;default:true"`  // false=软下线，边和计数保留
	FollowersCount       int64  `gorm:"not null;default:0"`     // 冗余计数，以对账结果为准
	FollowingCount       int64  `gorm:"not null;default:0"`
	PublicEntriesCount   int64  `gorm:"not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Profile) TableName() string { return "profiles" }

// FollowEdge 关注关系，(follower_id, following_id) 唯一，禁止自关注
type FollowEdge struct {
	ID          uint64 `gorm:"primaryKey"`
	FollowerID  uint64 `gorm:"not null;index:idx_follower;uniqueIndex:uk_follow_pair,priority:1"`
	FollowingID uint64 `gorm:"not null;index:idx_following;uniqueIndex:uk_follow_pair,priority:2"`
	CreatedAt   time.Time
}

func (FollowEdge) TableName() string { return "follow_edges" }

// SocialOutbox 关注事件投递表
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // follow / unfollow
	Follower  uint64 `gorm:"not null"`
	Followee  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
