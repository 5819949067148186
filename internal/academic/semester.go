// Package academic 学业进度引擎：学期解析、年级推算与报名资格判定。
// 本包为纯函数集合，不做任何 I/O；记录的读取与结果的持久化由调用方负责。
package academic

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidSemesterFormat 学期标签不符合 "<四位年份>年度" 格式
var ErrInvalidSemesterFormat = errors.New("学期格式无效，应为 <四位年份>年度")

// 学期标签格式：2025年度
var semesterPattern = regexp.MustCompile(`^(\d{4})年度$`)

// SeasonAutumn 当前规则下每年仅一个招生季（秋季）
// 多季制日历引入时仅需扩展 Semester，资格规则无需改动
const SeasonAutumn = "autumn"

// Semester 学期（一年一届的招生周期）
type Semester struct {
	Year   int    // 四位年份
	Season string // 固定为 autumn
	Label  string // 原始展示字符串，如 "2025年度"
}

// ParseSemester 解析学期标签
// 仅接受 "<四位年份>年度"，其余一律返回 ErrInvalidSemesterFormat
func ParseSemester(label string) (Semester, error) {
	m := semesterPattern.FindStringSubmatch(label)
	if m == nil {
		return Semester{}, fmt.Errorf("%w: %q", ErrInvalidSemesterFormat, label)
	}

	year := 0
	for _, ch := range m[1] {
		year = year*10 + int(ch-'0')
	}

	return Semester{Year: year, Season: SeasonAutumn, Label: label}, nil
}

// FormatSemester 按年份生成学期标签
func FormatSemester(year int) string {
	return fmt.Sprintf("%d年度", year)
}

// YearDifference 计算两个学期标签之间的年份差（to - from）
// to 早于 from 时返回负数，是否拒绝负向推进由调用方决定
func YearDifference(fromLabel, toLabel string) (int, error) {
	from, err := ParseSemester(fromLabel)
	if err != nil {
		return 0, err
	}
	to, err := ParseSemester(toLabel)
	if err != nil {
		return 0, err
	}
	return to.Year - from.Year, nil
}

// CurrentSemesterLabel 按机构惯例推算当前时刻所属学期标签
// 9-12 月属于当年学年，1-8 月属于上一年学年（学年边界为 9 月）
func CurrentSemesterLabel(now time.Time) string {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	return FormatSemester(year)
}

// NextSemesterLabel 下一学期标签（年份 +1，格式不变）
func NextSemesterLabel(label string) (string, error) {
	s, err := ParseSemester(label)
	if err != nil {
		return "", err
	}
	return FormatSemester(s.Year + 1), nil
}
