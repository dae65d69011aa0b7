package models

// Statistics 系统统计信息（缓存一小时，缓存失效时重新计算）
type Statistics struct {
	ActiveUsers1d  int64 `json:"activeUsers1d"`  // 一天内活跃用户数
	ActiveUsers7d  int64 `json:"activeUsers7d"`  // 七天内活跃用户数
	ActiveUsers30d int64 `json:"activeUsers30d"` // 三十天内活跃用户数
	NewUsers30d    int64 `json:"newUsers30d"`    // 三十天内新用户数

	// GitHub counters are nil when the upstream fetch failed
	GitHubContributors *int64 `json:"gitHubContributors,omitempty"`
	GitHubStargazers   *int64 `json:"gitHubStargazers,omitempty"`
}
