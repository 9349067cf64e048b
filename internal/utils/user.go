package utils

import (
	"time"
)

var avatarEmojis = []string{"🌱", "🌿", "🍃", "🌾", "🎋", "🎍", "🌲", "🌳", "🐼", "🦊", "🐨", "🐸"}

// GetDaysSinceJoined 计算加入天数
func GetDaysSinceJoined(joinedAt time.Time) int {
	return int(time.Since(joinedAt).Hours() / 24)
}

// DefaultAvatar 未上传头像时按用户 ID 固定选一个 emoji
func DefaultAvatar(userID uint) string {
	return avatarEmojis[int(userID)%len(avatarEmojis)]
}

// IsImageAvatar 头像引用是否为图片地址（本地路径或 URL），否则按 emoji 文本展示
func IsImageAvatar(avatar string) bool {
	return len(avatar) > 0 && (avatar[0] == '/' || len(avatar) > 8 && (avatar[:7] == "http://" || avatar[:8] == "https://"))
}
