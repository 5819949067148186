package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
)

// ── 测试辅助 ──

type enrollmentFixture struct {
	svc     EnrollmentService
	student *mockStudentRepo
	course  *mockCourseRepo
	enroll  *mockEnrollmentRepo
}

func setupEnrollmentService() *enrollmentFixture {
	studentRepo := newMockStudentRepo()
	courseRepo := newMockCourseRepo()
	enrollRepo := newMockEnrollmentRepo(studentRepo, courseRepo)
	repo := &repository.Repository{
		User:       newMockUserRepo(),
		Student:    studentRepo,
		Course:     courseRepo,
		Enrollment: enrollRepo,
		Attendance: newMockAttendanceRepo(),
	}
	return &enrollmentFixture{
		svc:     NewEnrollmentService(repo, zap.NewNop()),
		student: studentRepo,
		course:  courseRepo,
		enroll:  enrollRepo,
	}
}

func (f *enrollmentFixture) addStudent(id, grade, graduationStatus string) *model.Student {
	semester := "2023年度"
	student := &model.Student{
		StudentID:          id,
		Name:               "学员" + id,
		EnrollmentSemester: &semester,
		GraduationStatus:   graduationStatus,
	}
	if grade != "" {
		student.CurrentGrade = &grade
	}
	f.student.students[id] = student
	return student
}

func (f *enrollmentFixture) addCourse(id, semester, gradeLevel string, requiresGrades bool) *model.Course {
	course := &model.Course{
		CourseID:       id,
		Name:           "课程" + id,
		Semester:       semester,
		RequiresGrades: requiresGrades,
		GradeLevel:     gradeLevel,
		Status:         "open",
	}
	f.course.courses[id] = course
	return course
}

func (f *enrollmentFixture) addEnrollment(id, studentID, courseID, status string) *model.Enrollment {
	enrollment := &model.Enrollment{
		EnrollmentID: id,
		StudentID:    studentID,
		CourseID:     courseID,
		Status:       status,
	}
	enrollment.Version = 1
	f.enroll.enrollments[id] = enrollment
	return enrollment
}

// ── 报名创建与资格判定测试 ──

func TestEnrollmentCreate_Success(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)

	result, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	}, "op-1")

	if err != nil {
		t.Fatalf("报名应成功: %v", err)
	}
	if result.Status != model.EnrollmentPending {
		t.Errorf("新报名应为 PENDING，实际 %s", result.Status)
	}
}

func TestEnrollmentCreate_DuplicateSameSemester(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentPending)

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	}, "op-1")

	if !errors.Is(err, ErrEnrollmentIneligible) {
		t.Fatalf("同学期重复报名应被拒绝，实际: %v", err)
	}
	if err.Error() != "本学期已报名该课程，不可重复报名" {
		t.Errorf("拒绝原因不符: %s", err.Error())
	}
}

func TestEnrollmentCreate_CrossSemesterReenroll(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "二年级", "IN_PROGRESS")
	// 同名课程，去年学期的报名已通过
	f.addCourse("c-old", "2024年度", "", false)
	f.addCourse("c-new", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c-old", model.EnrollmentApproved)

	// 不同课程实体，跨学期不受限
	result, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c-new",
	}, "op-1")
	if err != nil {
		t.Fatalf("跨学期报名应成功: %v", err)
	}
	if result.Status != model.EnrollmentPending {
		t.Errorf("期望 PENDING，实际 %s", result.Status)
	}
}

func TestEnrollmentCheck_CrossSemesterSameCourse(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "二年级", "IN_PROGRESS")
	// 同一课程实体挂在旧学期标签下的已通过报名
	oldCourse := f.addCourse("c1", "2024年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentApproved)

	// 课程标签同步为新学期后，历史报名与目标学期重合
	oldCourse.Semester = "2025年度"

	result, err := f.svc.Check(context.Background(), &dto.CheckEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	})
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if result.CanEnroll {
		// 同课程同学期（标签已同步为 2025年度）→ 拒绝
		t.Error("同课程同学期应拒绝")
	}
}

func TestEnrollmentCreate_GradeTooLow(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c-basic", "2024年度", "", false)
	f.addCourse("c-adv", "2025年度", "三年级", true)
	// 有已通过报名，年级门槛生效
	f.addEnrollment("e1", "s1", "c-basic", model.EnrollmentApproved)

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c-adv",
	}, "op-1")

	if !errors.Is(err, ErrEnrollmentIneligible) {
		t.Fatalf("年级不足应被拒绝，实际: %v", err)
	}
}

func TestEnrollmentCreate_FirstEnrollmentBypassesGradeGate(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c-adv", "2025年度", "三年级", true)

	// 无任何已通过报名，首次报名不受年级门槛限制
	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c-adv",
	}, "op-1")
	if err != nil {
		t.Fatalf("首次报名应放行: %v", err)
	}
}

func TestEnrollmentCreate_GraduatedBypassesGradeGate(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "三年级", "GRADUATED")
	f.addCourse("c-basic", "2024年度", "", false)
	f.addCourse("c-adv", "2025年度", "三年级", true)
	f.addEnrollment("e1", "s1", "c-basic", model.EnrollmentApproved)

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c-adv",
	}, "op-1")
	if err != nil {
		t.Fatalf("毕业学员报名应放行: %v", err)
	}
}

func TestEnrollmentCreate_MissingGradeDenied(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "", "IN_PROGRESS")
	f.addCourse("c-basic", "2024年度", "", false)
	f.addCourse("c-adv", "2025年度", "二年级", true)
	f.addEnrollment("e1", "s1", "c-basic", model.EnrollmentApproved)

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c-adv",
	}, "op-1")
	if !errors.Is(err, ErrEnrollmentIneligible) {
		t.Fatalf("年级缺失应被拒绝，实际: %v", err)
	}
}

func TestEnrollmentCreate_CourseClosed(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	course := f.addCourse("c1", "2025年度", "", false)
	course.Status = "closed"

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	}, "op-1")
	if !errors.Is(err, ErrEnrollmentIneligible) {
		t.Fatalf("已关闭课程应被拒绝，实际: %v", err)
	}
}

func TestEnrollmentCreate_CourseFull(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	course := f.addCourse("c1", "2025年度", "", false)
	course.Capacity = 30
	course.EnrolledCount = 30

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	}, "op-1")
	if !errors.Is(err, ErrEnrollmentIneligible) {
		t.Fatalf("名额已满应被拒绝，实际: %v", err)
	}
}

func TestEnrollmentCheck_NoWrite(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)

	result, err := f.svc.Check(context.Background(), &dto.CheckEnrollmentRequest{
		StudentID: "s1", CourseID: "c1",
	})
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if !result.CanEnroll {
		t.Errorf("期望可报名，原因: %s", result.Reason)
	}
	if len(f.enroll.enrollments) != 0 {
		t.Error("Check 不应产生报名记录")
	}
}

// ── 审批流转测试 ──

func TestEnrollmentApprove_Success(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	course := f.addCourse("c1", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentPending)

	result, err := f.svc.Approve(context.Background(), "e1", &dto.ReviewEnrollmentRequest{Remark: "资料齐全"}, "op-1")
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if result.Status != model.EnrollmentApproved {
		t.Errorf("期望 APPROVED，实际 %s", result.Status)
	}
	if course.EnrolledCount != 1 {
		t.Errorf("通过审批后课程报名数应为 1，实际 %d", course.EnrolledCount)
	}
}

func TestEnrollmentApprove_AlreadyApproved(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentApproved)

	_, err := f.svc.Approve(context.Background(), "e1", &dto.ReviewEnrollmentRequest{}, "op-1")
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("期望 ErrInvalidStatusTransition，实际: %v", err)
	}
}

func TestEnrollmentReject_Success(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	course := f.addCourse("c1", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentPending)

	result, err := f.svc.Reject(context.Background(), "e1", &dto.ReviewEnrollmentRequest{Remark: "信息不全"}, "op-1")
	if err != nil {
		t.Fatalf("Reject 应成功: %v", err)
	}
	if result.Status != model.EnrollmentRejected {
		t.Errorf("期望 REJECTED，实际 %s", result.Status)
	}
	if course.EnrolledCount != 0 {
		t.Errorf("驳回不应占用名额，实际 %d", course.EnrolledCount)
	}
}

func TestEnrollmentCancel_ApprovedReleasesSeat(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	course := f.addCourse("c1", "2025年度", "", false)
	course.EnrolledCount = 1
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentApproved)

	result, err := f.svc.Cancel(context.Background(), "e1", "op-1")
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if result.Status != model.EnrollmentCancelled {
		t.Errorf("期望 CANCELLED，实际 %s", result.Status)
	}
	if course.EnrolledCount != 0 {
		t.Errorf("退课应回收名额，实际 %d", course.EnrolledCount)
	}
}

func TestEnrollmentCancel_RejectedNotAllowed(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentRejected)

	_, err := f.svc.Cancel(context.Background(), "e1", "op-1")
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("期望 ErrInvalidStatusTransition，实际: %v", err)
	}
}

func TestEnrollmentCreate_StudentNotFound(t *testing.T) {
	f := setupEnrollmentService()
	f.addCourse("c1", "2025年度", "", false)

	_, err := f.svc.Create(context.Background(), &dto.CreateEnrollmentRequest{
		StudentID: "missing", CourseID: "c1",
	}, "op-1")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

func TestEnrollmentList_FilterByStatus(t *testing.T) {
	f := setupEnrollmentService()
	f.addStudent("s1", "一年级", "IN_PROGRESS")
	f.addCourse("c1", "2025年度", "", false)
	f.addCourse("c2", "2025年度", "", false)
	f.addEnrollment("e1", "s1", "c1", model.EnrollmentApproved)
	f.addEnrollment("e2", "s1", "c2", model.EnrollmentPending)

	result, total, err := f.svc.List(context.Background(), &dto.ListEnrollmentsRequest{
		Status: model.EnrollmentPending,
	})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(result) != 1 {
		t.Fatalf("期望 1 条记录，实际 total=%d len=%d", total, len(result))
	}
	if result[0].ID != "e2" {
		t.Errorf("期望 e2，实际 %s", result[0].ID)
	}
}
