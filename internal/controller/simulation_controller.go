package controller

import (
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type SimulationController struct {
	SimulationService *service.SimulationService
	Upgrader          *websocket.Upgrader
}

func NewSimulationController(simulationService *service.SimulationService, allowedOrigins []string) *SimulationController {
	return &SimulationController{
		SimulationService: simulationService,
		Upgrader:          service.NewUpgrader(allowedOrigins),
	}
}

// ListScenarios godoc
// @Summary 对话场景
// @Tags 模拟训练
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]simulator.Scenario}
// @Router /api/simulations/scenarios [get]
func (c *SimulationController) ListScenarios(ctx *gin.Context) {
	util.Success(ctx, c.SimulationService.ListScenarios())
}

// Start godoc
// @Summary 开始模拟
// @Description personality 为空时使用场景默认性格
// @Tags 模拟训练
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.StartSimulationRequest true "场景和客户性格"
// @Success 201 {object} util.Response{data=model.SimulationSession}
// @Router /api/simulations [post]
func (c *SimulationController) Start(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.StartSimulationRequest
	if !bindJSON(ctx, &req) {
		return
	}
	session, err := c.SimulationService.StartSession(ctx.Request.Context(), userID, req.Scenario, req.Personality)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// List godoc
// @Summary 我的模拟记录
// @Tags 模拟训练
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数" default(20)
// @Success 200 {object} util.Response{data=[]model.SimulationSession}
// @Router /api/simulations [get]
func (c *SimulationController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	list, err := c.SimulationService.ListSessions(ctx.Request.Context(), userID, util.QueryInt(ctx, "limit", 20))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Get godoc
// @Summary 模拟详情
// @Tags 模拟训练
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.SimulationSession}
// @Router /api/simulations/{id} [get]
func (c *SimulationController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	session, err := c.SimulationService.GetSession(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// SendMessage godoc
// @Summary 发送坐席回复
// @Description 1-500 个字符，返回评分和客户的下一句
// @Tags 模拟训练
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   body body service.SendMessageRequest true "消息内容"
// @Success 200 {object} util.Response{data=service.Turn}
// @Failure 400 {object} util.Response
// @Router /api/simulations/{id}/messages [post]
func (c *SimulationController) SendMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.SendMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}
	turn, err := c.SimulationService.SendMessage(ctx.Request.Context(), userID, sessionID, req.Content)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, turn)
}

// Complete godoc
// @Summary 结束模拟并评分
// @Tags 模拟训练
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionResult}
// @Router /api/simulations/{id}/complete [post]
func (c *SimulationController) Complete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.SimulationService.CompleteSession(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Abandon godoc
// @Summary 放弃模拟
// @Tags 模拟训练
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.SimulationSession}
// @Router /api/simulations/{id}/abandon [post]
func (c *SimulationController) Abandon(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	session, err := c.SimulationService.AbandonSession(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Live godoc
// @Summary 实时模拟通道
// @Description 每个文本帧是一条坐席消息，返回 turn 帧；时间用完后服务端关闭连接
// @Tags 模拟训练
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   token query string false "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/simulations/{id}/ws [get]
func (c *SimulationController) Live(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.SimulationService.PrepareLive(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	conn, err := c.Upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Uint("sessionId", sessionID), zap.Error(err))
		return
	}
	c.SimulationService.ServeLive(ctx.Request.Context(), conn, session)
}
