package model

const (
	// SourceAuthoritative 对账后落库的权威值
	SourceAuthoritative = "authoritative"
	// SourceOptimistic 请求时 ±1 的预测值，仅用于即时反馈，绝不落库
	SourceOptimistic = "optimistic"
)

// CounterValue 带来源标记的计数值
type CounterValue struct {
	Count  int64  `json:"count"`
	Source string `json:"source"`
}

// ProfileCounts 一个Profile的三个冗余计数
type ProfileCounts struct {
	UserID             uint64 `json:"user_id"`
	FollowersCount     int64  `json:"followers_count"`
	FollowingCount     int64  `json:"following_count"`
	PublicEntriesCount int64  `json:"public_entries_count"`
}
