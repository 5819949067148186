package academic

import "fmt"

// Verdict 报名资格判定结果
// CanEnroll=false 时 Reason 为面向用户的拒绝原因；
// CanEnroll=true 时 Reason 可能携带提示信息（如跨学期重报）
type Verdict struct {
	CanEnroll bool   `json:"can_enroll"`
	Reason    string `json:"reason,omitempty"`
}

// EnrollmentRef 已有报名记录的最小引用（供跨学期判定使用）
type EnrollmentRef struct {
	CourseID string
	Semester string // 报名课程所属学期标签
}

// allow / deny 构造辅助
func allow(reason string) Verdict { return Verdict{CanEnroll: true, Reason: reason} }
func deny(reason string) Verdict  { return Verdict{CanEnroll: false, Reason: reason} }

// CanEnrollCourse 年级资格判定，按以下顺序短路（命中即返回）：
//  1. 课程不要求年级 → 放行
//  2. 已毕业/已归档学员 → 放行（毕业后开启新一轮学习周期）
//  3. 尚无任何已通过报名 → 放行（首次报名不受限，避免新学员年级未稳定时被卡）
//  4. 学员年级缺失 → 拒绝
//  5. 年级/课程级别标签无法识别 → 放行（宽松兜底，未识别标签不参与门槛）
//  6. 学员年级低于课程要求 → 拒绝
//  7. 其余（学员年级 ≥ 课程要求）→ 放行
//
// 第 5 步的宽松兜底是既有业务行为，未经产品确认不得收紧
func CanEnrollCourse(studentGrade, courseLevel, graduationStatus string, requiresGrades, hasApprovedEnrollment bool) Verdict {
	// 1. 课程未开启年级门槛
	if !requiresGrades {
		return allow("")
	}

	// 2. 毕业学员不受年级限制
	if graduationStatus == StatusGraduated || graduationStatus == StatusArchived {
		return allow("")
	}

	// 3. 首次报名不受限
	if !hasApprovedEnrollment {
		return allow("")
	}

	// 4. 年级信息缺失
	if studentGrade == "" {
		return deny("学生年级信息缺失，无法判定报名资格")
	}

	// 5. 标签无法识别时放行
	studentLevel, ok := GradeLevel(studentGrade)
	if !ok {
		return allow("")
	}
	courseRequired, ok := GradeLevel(courseLevel)
	if !ok {
		return allow("")
	}

	// 6. 年级不足
	if studentLevel < courseRequired {
		return deny(fmt.Sprintf("该课程要求%s及以上年级，您当前为%s，暂不符合报名条件", courseLevel, studentGrade))
	}

	// 7. 年级达标
	return allow("")
}

// CanEnrollAcrossSemesters 跨学期重复报名判定：
//   - 同课程、不同学期的历史报名 → 放行，并提示曾报名学期（明确支持跨年重修）
//   - 同课程、同学期的已有报名 → 拒绝
//   - 无同课程记录 → 放行
func CanEnrollAcrossSemesters(existing []EnrollmentRef, targetCourseID, targetSemester string) Verdict {
	var priorSemester string

	for _, ref := range existing {
		if ref.CourseID != targetCourseID {
			continue
		}
		if ref.Semester == targetSemester {
			return deny("本学期已报名该课程，不可重复报名")
		}
		priorSemester = ref.Semester
	}

	if priorSemester != "" {
		return allow(fmt.Sprintf("您曾于%s报名该课程，本次为跨学期重新报名", priorSemester))
	}

	return allow("")
}
