package dto

type DashboardStatsResponse struct {
	TotalConversations int64             `json:"total_conversations"`
	TotalMessages      int64             `json:"total_messages"`
	AIHandled          int64             `json:"ai_handled"`
	Transferred        int64             `json:"transferred"`
	AIResolutionRate   float64           `json:"ai_resolution_rate"`
	DailyVolume        []DailyVolumeItem `json:"daily_volume"`
}

type DailyVolumeItem struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
