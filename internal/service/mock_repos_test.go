package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
	pkgerrors "github.com/fgwjs00/lndx-sub001/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	for _, u := range m.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	seq      int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("stu-%d", m.seq)
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now()
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByPhone(_ context.Context, phone string) (*model.Student, error) {
	for _, s := range m.students {
		if s.Phone == phone {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	if existing, ok := m.students[student.StudentID]; ok && existing != student {
		*existing = *student
		return nil
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) List(_ context.Context, keyword, graduationStatus string, offset, limit int) ([]model.Student, int64, error) {
	var all []model.Student
	for _, s := range m.students {
		if keyword != "" && !strings.Contains(s.Name, keyword) && !strings.Contains(s.Phone, keyword) {
			continue
		}
		if graduationStatus != "" && s.GraduationStatus != graduationStatus {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentID < all[j].StudentID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockStudentRepo) ListUninitialized(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.EnrollmentSemester == nil {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *mockStudentRepo) ListInitialized(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.EnrollmentSemester != nil && s.GraduationStatus == "IN_PROGRESS" {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	seq     int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		m.seq++
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	course.CreatedAt = time.Now()
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) List(_ context.Context, semester, status, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, c := range m.courses {
		if semester != "" && c.Semester != semester {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		if keyword != "" && !strings.Contains(c.Name, keyword) && !strings.Contains(c.TeacherName, keyword) {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CourseID < all[j].CourseID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockCourseRepo) IncrementEnrolled(_ context.Context, id string, delta int) error {
	c, ok := m.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.EnrolledCount += delta
	return nil
}

func (m *mockCourseRepo) ListSemesters(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, c := range m.courses {
		if !seen[c.Semester] {
			seen[c.Semester] = true
			result = append(result, c.Semester)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(result)))
	return result, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment
	courses     *mockCourseRepo // 关联预加载
	students    *mockStudentRepo
	seq         int
}

func newMockEnrollmentRepo(students *mockStudentRepo, courses *mockCourseRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{
		enrollments: make(map[string]*model.Enrollment),
		courses:     courses,
		students:    students,
	}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	if enrollment.EnrollmentID == "" {
		m.seq++
		enrollment.EnrollmentID = fmt.Sprintf("enroll-%d", m.seq)
	}
	if enrollment.Version == 0 {
		enrollment.Version = 1
	}
	enrollment.CreatedAt = time.Now()
	m.enrollments[enrollment.EnrollmentID] = enrollment
	return nil
}

// preload 按外键填充关联（模拟 Preload 行为）
func (m *mockEnrollmentRepo) preload(e *model.Enrollment) *model.Enrollment {
	clone := *e
	if m.students != nil {
		if s, ok := m.students.students[e.StudentID]; ok {
			clone.Student = s
		}
	}
	if m.courses != nil {
		if c, ok := m.courses.courses[e.CourseID]; ok {
			clone.Course = c
		}
	}
	return &clone
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return m.preload(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) UpdateStatus(_ context.Context, enrollment *model.Enrollment) error {
	stored, ok := m.enrollments[enrollment.EnrollmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != enrollment.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = enrollment.Status
	stored.Remark = enrollment.Remark
	stored.UpdatedBy = enrollment.UpdatedBy
	stored.Version++
	enrollment.Version = stored.Version
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			result = append(result, *m.preload(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListApprovedByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentApproved {
			result = append(result, *m.preload(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListApprovedByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == model.EnrollmentApproved {
			result = append(result, *m.preload(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) HasApproved(_ context.Context, studentID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) List(_ context.Context, studentID, courseID, status string, offset, limit int) ([]model.Enrollment, int64, error) {
	var all []model.Enrollment
	for _, e := range m.enrollments {
		if studentID != "" && e.StudentID != studentID {
			continue
		}
		if courseID != "" && e.CourseID != courseID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		all = append(all, *m.preload(e))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EnrollmentID < all[j].EnrollmentID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	attendances map[string]*model.Attendance
	seq         int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{attendances: make(map[string]*model.Attendance)}
}

func (m *mockAttendanceRepo) Create(_ context.Context, attendance *model.Attendance) error {
	if attendance.AttendanceID == "" {
		m.seq++
		attendance.AttendanceID = fmt.Sprintf("att-%d", m.seq)
	}
	attendance.CreatedAt = time.Now()
	m.attendances[attendance.AttendanceID] = attendance
	return nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, attendance *model.Attendance) error {
	m.attendances[attendance.AttendanceID] = attendance
	return nil
}

func (m *mockAttendanceRepo) GetByEnrollmentDate(_ context.Context, enrollmentID string, date time.Time) (*model.Attendance, error) {
	day := date.Format("2006-01-02")
	for _, a := range m.attendances {
		if a.EnrollmentID == enrollmentID && a.Date.Format("2006-01-02") == day {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) List(_ context.Context, courseID, studentID string, from, to *time.Time, offset, limit int) ([]model.Attendance, int64, error) {
	var all []model.Attendance
	for _, a := range m.attendances {
		if courseID != "" && a.CourseID != courseID {
			continue
		}
		if studentID != "" && a.StudentID != studentID {
			continue
		}
		if from != nil && a.Date.Before(*from) {
			continue
		}
		if to != nil && a.Date.After(to.Add(24*time.Hour-time.Nanosecond)) {
			continue
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AttendanceID < all[j].AttendanceID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockAttendanceRepo) ListByCourseDate(_ context.Context, courseID string, from, to *time.Time) ([]model.Attendance, error) {
	all, _, err := m.List(nil, courseID, "", from, to, 0, len(m.attendances)+1)
	return all, err
}

func (m *mockAttendanceRepo) Summarize(_ context.Context, courseID, studentID string) (*repository.AttendanceSummary, error) {
	summary := &repository.AttendanceSummary{}
	for _, a := range m.attendances {
		if courseID != "" && a.CourseID != courseID {
			continue
		}
		if studentID != "" && a.StudentID != studentID {
			continue
		}
		switch a.Status {
		case model.AttendancePresent:
			summary.Present++
		case model.AttendanceAbsent:
			summary.Absent++
		case model.AttendanceLeave:
			summary.Leave++
		}
	}
	return summary, nil
}

// paginate 简单分页
func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
