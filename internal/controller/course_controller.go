package controller

import (
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

type EnrollmentStatusRequest struct {
	Status model.EnrollmentStatus `json:"status" binding:"required"`
}

// ListCourses godoc
// @Summary 课程列表
// @Description 默认只返回已上线课程，all=true 返回全部
// @Tags 课程
// @Produce  json
// @Param   all query bool false "包含未上线课程"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	activeOnly := ctx.Query("all") != "true"
	courses, err := c.CourseService.ListCourses(ctx.Request.Context(), activeOnly)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 包含按顺序排列的模块和课时
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.CourseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 修改课程
// @Description 每次修改版本号加一
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/admin/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.CourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// AddModule godoc
// @Summary 添加模块
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.ModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Router /api/admin/courses/{id}/modules [post]
func (c *CourseController) AddModule(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.ModuleRequest
	if !bindJSON(ctx, &req) {
		return
	}
	module, err := c.CourseService.AddModule(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// AddLesson godoc
// @Summary 添加课时
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "模块ID"
// @Param   body body service.LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/admin/modules/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.LessonRequest
	if !bindJSON(ctx, &req) {
		return
	}
	lesson, err := c.CourseService.AddLesson(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// Enroll godoc
// @Summary 报名课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response "已报名或课程未上线"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	enrollment, err := c.CourseService.Enroll(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// ListEnrollments godoc
// @Summary 我的课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/enrollments [get]
func (c *CourseController) ListEnrollments(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	list, err := c.CourseService.ListEnrollments(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// UpdateEnrollment godoc
// @Summary 修改报名状态
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body EnrollmentStatusRequest true "新状态"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Router /api/courses/{id}/enrollment [patch]
func (c *CourseController) UpdateEnrollment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req EnrollmentStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	enrollment, err := c.CourseService.UpdateEnrollmentStatus(ctx.Request.Context(), userID, courseID, req.Status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CompleteLesson godoc
// @Summary 完成课时
// @Description 首次完成获得积分，课程全部完成时颁发证书
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Param   body body service.CompleteLessonRequest true "得分和用时（秒）"
// @Success 200 {object} util.Response{data=service.LessonCompletion}
// @Failure 403 {object} util.Response "未报名"
// @Router /api/lessons/{id}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	lessonID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.CompleteLessonRequest
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := c.CourseService.CompleteLesson(ctx.Request.Context(), userID, lessonID, req.Score, req.TimeSpent)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetProgress godoc
// @Summary 课程进度
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgress}
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	progress, err := c.CourseService.GetCourseProgress(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
