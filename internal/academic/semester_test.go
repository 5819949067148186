package academic

import (
	"errors"
	"testing"
	"time"
)

// ── ParseSemester 测试 ──

func TestParseSemester_Success(t *testing.T) {
	s, err := ParseSemester("2025年度")
	if err != nil {
		t.Fatalf("ParseSemester 应成功: %v", err)
	}
	if s.Year != 2025 {
		t.Errorf("期望Year=2025，实际=%d", s.Year)
	}
	if s.Season != SeasonAutumn {
		t.Errorf("期望Season=autumn，实际=%s", s.Season)
	}
	if s.Label != "2025年度" {
		t.Errorf("期望Label=2025年度，实际=%s", s.Label)
	}
}

func TestParseSemester_InvalidFormat(t *testing.T) {
	cases := []string{
		"2025",      // 缺少后缀
		"25年度",      // 年份不足四位
		"20251年度",   // 年份超过四位
		"abcd年度",    // 非数字年份
		"2025年度秋季",  // 多余后缀
		" 2025年度",   // 前导空格
		"",          // 空串
		"2025学年",    // 错误后缀
	}

	for _, label := range cases {
		if _, err := ParseSemester(label); !errors.Is(err, ErrInvalidSemesterFormat) {
			t.Errorf("ParseSemester(%q) 期望 ErrInvalidSemesterFormat，实际: %v", label, err)
		}
	}
}

// ── YearDifference 测试 ──

func TestYearDifference(t *testing.T) {
	diff, err := YearDifference("2023年度", "2025年度")
	if err != nil {
		t.Fatalf("YearDifference 应成功: %v", err)
	}
	if diff != 2 {
		t.Errorf("期望diff=2，实际=%d", diff)
	}
}

func TestYearDifference_Negative(t *testing.T) {
	// to 早于 from 时返回负数，不报错（由调用方决定是否拒绝）
	diff, err := YearDifference("2025年度", "2023年度")
	if err != nil {
		t.Fatalf("YearDifference 应成功: %v", err)
	}
	if diff != -2 {
		t.Errorf("期望diff=-2，实际=%d", diff)
	}
}

func TestYearDifference_InvalidInput(t *testing.T) {
	if _, err := YearDifference("2023", "2025年度"); !errors.Is(err, ErrInvalidSemesterFormat) {
		t.Errorf("from 格式错误应返回 ErrInvalidSemesterFormat，实际: %v", err)
	}
	if _, err := YearDifference("2023年度", "2025"); !errors.Is(err, ErrInvalidSemesterFormat) {
		t.Errorf("to 格式错误应返回 ErrInvalidSemesterFormat，实际: %v", err)
	}
}

// ── CurrentSemesterLabel 测试 ──

func TestCurrentSemesterLabel(t *testing.T) {
	cases := []struct {
		now      time.Time
		expected string
	}{
		{time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), "2025年度"},  // 9月起属当年学年
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "2025年度"},
		{time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), "2024年度"}, // 1-8月属上一学年
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2025年度"},
		{time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), "2025年度"},
	}

	for _, c := range cases {
		if got := CurrentSemesterLabel(c.now); got != c.expected {
			t.Errorf("CurrentSemesterLabel(%s) 期望=%s，实际=%s", c.now.Format("2006-01-02"), c.expected, got)
		}
	}
}

// ── NextSemesterLabel 测试 ──

func TestNextSemesterLabel(t *testing.T) {
	next, err := NextSemesterLabel("2025年度")
	if err != nil {
		t.Fatalf("NextSemesterLabel 应成功: %v", err)
	}
	if next != "2026年度" {
		t.Errorf("期望=2026年度，实际=%s", next)
	}
}

func TestNextSemesterLabel_Invalid(t *testing.T) {
	if _, err := NextSemesterLabel("无效学期"); !errors.Is(err, ErrInvalidSemesterFormat) {
		t.Errorf("期望 ErrInvalidSemesterFormat，实际: %v", err)
	}
}
