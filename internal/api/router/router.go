package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fgwjs00/lndx-sub001/config"
	"github.com/fgwjs00/lndx-sub001/internal/api/handler"
	"github.com/fgwjs00/lndx-sub001/internal/api/middleware"
	"github.com/fgwjs00/lndx-sub001/pkg/jwt"
	"github.com/fgwjs00/lndx-sub001/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			// 验证码发送单独限流
			auth.POST("/code", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.SendCode)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/login-code", h.Auth.LoginByCode)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/password/reset", h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetMe)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)
			authorized.POST("/auth/phone/bind", h.Auth.BindPhone)

			// 学员模块
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.ListStudents)
				students.GET("/:id", h.Student.GetStudent)
				students.POST("", h.Student.CreateStudent)
				students.PUT("/:id", h.Student.UpdateStudent)
				students.DELETE("/:id", middleware.RoleAuth("admin"), h.Student.DeleteStudent)
				students.POST("/grades/init", middleware.RoleAuth("admin"), h.Student.InitGrades)
				students.POST("/grades/refresh", middleware.RoleAuth("admin"), h.Student.RefreshGrades)
				students.GET("/:id/attendance-summary", h.Attendance.GetAttendanceSummary)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.POST("", middleware.RoleAuth("admin"), h.Course.CreateCourse)
				courses.PUT("/:id", middleware.RoleAuth("admin"), h.Course.UpdateCourse)
				courses.DELETE("/:id", middleware.RoleAuth("admin"), h.Course.DeleteCourse)
			}

			// 报名模块
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.GET("", h.Enrollment.ListEnrollments)
				enrollments.GET("/check", h.Enrollment.CheckEnrollment)
				enrollments.GET("/:id", h.Enrollment.GetEnrollment)
				enrollments.POST("", h.Enrollment.CreateEnrollment)
				enrollments.PUT("/:id/approve", middleware.RoleAuth("admin"), h.Enrollment.ApproveEnrollment)
				enrollments.PUT("/:id/reject", middleware.RoleAuth("admin"), h.Enrollment.RejectEnrollment)
				enrollments.PUT("/:id/cancel", h.Enrollment.CancelEnrollment)
			}

			// 考勤模块
			attendances := authorized.Group("/attendances")
			{
				attendances.GET("", h.Attendance.ListAttendances)
				attendances.GET("/summary", h.Attendance.GetAttendanceSummary)
				attendances.POST("", h.Attendance.RecordAttendance)
				attendances.POST("/batch", h.Attendance.BatchRecordAttendance)
			}

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.GET("/current", h.Semester.GetCurrentSemester)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/courses/:id/roster", h.Export.ExportRoster)
				export.GET("/courses/:id/attendance", h.Export.ExportAttendance)
				export.GET("/students/:id/timetable.ics", h.Export.ExportTimetable)
			}
		}
	}

	return r
}
