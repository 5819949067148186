package dto

// ── 学期模块 DTO ──

// CurrentSemesterResponse 当前学期响应
type CurrentSemesterResponse struct {
	Current string `json:"current"` // 如 "2025年度"
	Next    string `json:"next"`    // 如 "2026年度"
}
