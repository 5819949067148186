package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEnrollees  = errors.New("该课程暂无已通过报名的学员")
	ErrExportNoAttendance = errors.New("该课程在所选区间内无考勤记录")
	ErrExportNoCourses    = errors.New("该学员暂无已通过报名的课程")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

var dayNames = map[int]string{
	1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五", 6: "周六", 7: "周日",
}

// ExportService 导出业务接口
//
// 设计说明：
//   - 花名册与考勤表导出为 Excel (.xlsx)，课表导出为 iCalendar (.ics)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRoster 导出课程花名册（已通过报名的学员清单）
	ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
	// ExportAttendance 导出课程考勤表，日期为行、学员为列
	ExportAttendance(ctx context.Context, courseID string, from, to *time.Time) (*bytes.Buffer, string, error)
	// ExportTimetable 导出学员课表为 iCalendar，按周重复直至课程结束日
	ExportTimetable(ctx context.Context, studentID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster — 课程花名册
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, "", err
	}

	enrollments, err := s.repo.Enrollment.ListApprovedByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程报名失败", zap.Error(err))
		return nil, "", err
	}
	if len(enrollments) == 0 {
		return nil, "", ErrExportNoEnrollees
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "花名册"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 16)
	f.SetColWidth(sheetName, "D", "D", 8)
	f.SetColWidth(sheetName, "E", "E", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s（%s）— 花名册", course.Name, course.Semester))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "序号")
	f.SetCellValue(sheetName, cell("B", row), "姓名")
	f.SetCellValue(sheetName, cell("C", row), "手机号")
	f.SetCellValue(sheetName, cell("D", row), "年级")
	f.SetCellValue(sheetName, cell("E", row), "报名日期")

	// 数据行
	row = 3
	for i := range enrollments {
		e := &enrollments[i]
		if e.Student == nil {
			continue
		}
		grade := ""
		if e.Student.CurrentGrade != nil {
			grade = *e.Student.CurrentGrade
		}
		f.SetCellValue(sheetName, cell("A", row), row-2)
		f.SetCellValue(sheetName, cell("B", row), e.Student.Name)
		f.SetCellValue(sheetName, cell("C", row), e.Student.Phone)
		f.SetCellValue(sheetName, cell("D", row), grade)
		f.SetCellValue(sheetName, cell("E", row), e.CreatedAt.Format("2006-01-02"))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("花名册_%s_%s.xlsx", course.Name, course.Semester)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance — 课程考勤表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行：上课日期（升序）
//   - 列：学员姓名
//   - 单元格：出勤 / 缺勤 / 请假

func (s *exportService) ExportAttendance(ctx context.Context, courseID string, from, to *time.Time) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, "", err
	}

	attendances, err := s.repo.Attendance.ListByCourseDate(ctx, courseID, from, to)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(attendances) == 0 {
		return nil, "", ErrExportNoAttendance
	}

	statusText := map[string]string{
		model.AttendancePresent: "出勤",
		model.AttendanceAbsent:  "缺勤",
		model.AttendanceLeave:   "请假",
	}

	// 数据索引: "date:studentID" → 状态文本；并收集唯一日期与学员（保持首现顺序）
	cellIndex := make(map[string]string)
	var dates []string
	dateSeen := make(map[string]bool)
	type studentCol struct {
		id   string
		name string
	}
	var students []studentCol
	studentSeen := make(map[string]bool)

	for i := range attendances {
		a := &attendances[i]
		d := a.Date.Format("2006-01-02")
		if !dateSeen[d] {
			dateSeen[d] = true
			dates = append(dates, d)
		}
		if !studentSeen[a.StudentID] {
			studentSeen[a.StudentID] = true
			name := a.StudentID
			if a.Student != nil {
				name = a.Student.Name
			}
			students = append(students, studentCol{id: a.StudentID, name: name})
		}
		cellIndex[d+":"+a.StudentID] = statusText[a.Status]
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	for i := range students {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s（%s）— 考勤表", course.Name, course.Semester))
	f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", colName(len(students))))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheetName, cell("A", row), "日期")
	for i, sc := range students {
		f.SetCellValue(sheetName, cell(colName(1+i), row), sc.name)
	}

	row = 3
	for _, d := range dates {
		f.SetCellValue(sheetName, cell("A", row), d)
		for i, sc := range students {
			if text, ok := cellIndex[d+":"+sc.id]; ok {
				f.SetCellValue(sheetName, cell(colName(1+i), row), text)
			} else {
				f.SetCellValue(sheetName, cell(colName(1+i), row), "-")
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤表_%s_%s.xlsx", course.Name, course.Semester)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTimetable — 学员课表 (.ics)
// ═══════════════════════════════════════════════════════════
//
// 每门已通过课程生成一个 VEVENT：
//   - DTSTART 为课程起始日后的首个上课星期 + 上课时间
//   - RRULE 按周重复直至课程结束日
//   - 缺少上课日期/时间信息的课程跳过

func (s *exportService) ExportTimetable(ctx context.Context, studentID string) (*bytes.Buffer, string, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return nil, "", err
	}

	enrollments, err := s.repo.Enrollment.ListApprovedByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学员报名失败", zap.Error(err))
		return nil, "", err
	}
	if len(enrollments) == 0 {
		return nil, "", ErrExportNoCourses
	}

	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.Local
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//lndx//课表导出//CN")

	events := 0
	now := time.Now()
	for i := range enrollments {
		course := enrollments[i].Course
		if course == nil || course.StartDate == nil || course.EndDate == nil {
			continue
		}
		startClock, err := time.Parse("15:04", course.StartTime)
		if err != nil {
			continue
		}
		endClock, err := time.Parse("15:04", course.EndTime)
		if err != nil {
			continue
		}

		// 课程起始日后的首个上课星期
		first := firstWeekday(*course.StartDate, course.DayOfWeek)
		if first.After(*course.EndDate) {
			continue
		}

		dtStart := time.Date(first.Year(), first.Month(), first.Day(),
			startClock.Hour(), startClock.Minute(), 0, 0, loc)
		dtEnd := time.Date(first.Year(), first.Month(), first.Day(),
			endClock.Hour(), endClock.Minute(), 0, 0, loc)

		event := cal.AddEvent(fmt.Sprintf("%s@lndx", enrollments[i].EnrollmentID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(dtStart)
		event.SetEndAt(dtEnd)
		event.SetSummary(course.Name)
		if course.TeacherName != "" {
			event.SetDescription(fmt.Sprintf("授课教师：%s", course.TeacherName))
		}
		event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;UNTIL=%s",
			course.EndDate.Add(24*time.Hour).UTC().Format("20060102T150405Z")))
		events++
	}

	if events == 0 {
		return nil, "", ErrExportNoCourses
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("课表_%s.ics", student.Name)
	return buf, filename, nil
}

// firstWeekday start 当日或之后第一个指定星期（1=周一 … 7=周日）
func firstWeekday(start time.Time, dayOfWeek int) time.Time {
	target := time.Weekday(dayOfWeek % 7) // 7(周日) → time.Sunday(0)
	d := start
	for d.Weekday() != target {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
