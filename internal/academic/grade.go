package academic

// ── 年级与毕业状态常量 ──

// 年级标签（按序）；入学满 3 年进入终态 GradeGraduated
const (
	GradeOne       = "一年级"
	GradeTwo       = "二年级"
	GradeThree     = "三年级"
	GradeGraduated = "GRADUATED"
)

// 毕业状态
const (
	StatusInProgress = "IN_PROGRESS"
	StatusGraduated  = "GRADUATED"
	StatusArchived   = "ARCHIVED"
)

// GraduationYears 入学满多少年视为毕业
const GraduationYears = 3

// gradeLevels 年级标签 → 序数（1/2/3）
var gradeLevels = map[string]int{
	GradeOne:   1,
	GradeTwo:   2,
	GradeThree: 3,
}

// GradeLevel 年级标签对应的序数；未识别的标签返回 ok=false
func GradeLevel(label string) (int, bool) {
	level, ok := gradeLevels[label]
	return level, ok
}

// GradeByElapsedYears 按已过年数映射年级
// 负数回退一年级：属于既有业务行为，未经产品确认不得收紧（见 DESIGN.md）
func GradeByElapsedYears(elapsed int) string {
	switch {
	case elapsed >= GraduationYears:
		return GradeGraduated
	case elapsed == 1:
		return GradeTwo
	case elapsed == 2:
		return GradeThree
	default:
		// elapsed == 0 以及负数
		return GradeOne
	}
}

// CurrentGrade 由入学学期与当前学期推算当前年级
func CurrentGrade(enrollmentLabel, currentLabel string) (string, error) {
	elapsed, err := YearDifference(enrollmentLabel, currentLabel)
	if err != nil {
		return "", err
	}
	return GradeByElapsedYears(elapsed), nil
}

// ShouldGraduate 是否满足毕业条件（入学满 3 年）
func ShouldGraduate(enrollmentLabel, currentLabel string) (bool, error) {
	elapsed, err := YearDifference(enrollmentLabel, currentLabel)
	if err != nil {
		return false, err
	}
	return elapsed >= GraduationYears, nil
}
