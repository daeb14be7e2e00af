package controller

import (
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	GamificationService *service.GamificationService
}

func NewGamificationController(gamificationService *service.GamificationService) *GamificationController {
	return &GamificationController{GamificationService: gamificationService}
}

// ListBadges godoc
// @Summary 徽章列表
// @Tags 激励
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/badges [get]
func (c *GamificationController) ListBadges(ctx *gin.Context) {
	badges, err := c.GamificationService.ListBadges(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// MyBadges godoc
// @Summary 我的徽章
// @Tags 激励
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.BadgeAward}
// @Router /api/badges/mine [get]
func (c *GamificationController) MyBadges(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	awards, err := c.GamificationService.GetUserBadges(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, awards)
}

// CreateBadge godoc
// @Summary 创建徽章
// @Tags 激励管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateBadgeRequest true "徽章信息"
// @Success 201 {object} util.Response{data=model.Badge}
// @Router /api/admin/badges [post]
func (c *GamificationController) CreateBadge(ctx *gin.Context) {
	var req service.CreateBadgeRequest
	if !bindJSON(ctx, &req) {
		return
	}
	badge, err := c.GamificationService.CreateBadge(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, badge)
}

// AwardBadge godoc
// @Summary 手动授予徽章
// @Description 重复授予不会报错
// @Tags 激励管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   badgeId path int true "徽章ID"
// @Success 200 {object} util.Response
// @Router /api/admin/users/{id}/badges/{badgeId} [post]
func (c *GamificationController) AwardBadge(ctx *gin.Context) {
	userID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	badgeID, ok := paramID(ctx, "badgeId")
	if !ok {
		return
	}
	created, err := c.GamificationService.AwardBadge(ctx.Request.Context(), userID, badgeID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"awarded": created})
}

// Leaderboard godoc
// @Summary 排行榜
// @Tags 激励
// @Produce  json
// @Param   limit query int false "条数，最多 100" default(10)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/leaderboard [get]
func (c *GamificationController) Leaderboard(ctx *gin.Context) {
	limit := util.QueryInt(ctx, "limit", 10)
	entries, err := c.GamificationService.GetLeaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// Stats godoc
// @Summary 我的积分和等级
// @Tags 激励
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserStats}
// @Router /api/gamification/stats [get]
func (c *GamificationController) Stats(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	stats, err := c.GamificationService.GetUserStats(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
