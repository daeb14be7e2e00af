package controller

import (
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// RecordCSAT godoc
// @Summary 记录满意度
// @Description 分值 1-5，超出范围返回 ValidationError
// @Tags 分析
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CSATRequest true "满意度"
// @Success 201 {object} util.Response{data=model.CSATMetric}
// @Failure 400 {object} util.Response
// @Router /api/csat [post]
func (c *AnalyticsController) RecordCSAT(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.CSATRequest
	if !bindJSON(ctx, &req) {
		return
	}
	metric, err := c.AnalyticsService.RecordCSAT(ctx.Request.Context(), userID, req.Score, req.Category, req.Notes)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, metric)
}

// ListCSAT godoc
// @Summary 我的满意度记录
// @Tags 分析
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数" default(50)
// @Success 200 {object} util.Response{data=[]model.CSATMetric}
// @Router /api/csat [get]
func (c *AnalyticsController) ListCSAT(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	list, err := c.AnalyticsService.ListCSAT(ctx.Request.Context(), userID, util.QueryInt(ctx, "limit", 50))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// CSATSummary godoc
// @Summary 满意度汇总
// @Description userId 为空时汇总全部学员
// @Tags 分析管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId query int false "用户ID"
// @Success 200 {object} util.Response{data=service.CSATSummary}
// @Router /api/admin/csat/summary [get]
func (c *AnalyticsController) CSATSummary(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Query("userId"))
	summary, err := c.AnalyticsService.GetCSATSummary(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Dashboard godoc
// @Summary 学习看板
// @Tags 分析
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Router /api/dashboard [get]
func (c *AnalyticsController) Dashboard(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	dashboard, err := c.AnalyticsService.GetDashboard(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}
