package controller

import (
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
	}
}

// Register godoc
// @Summary 注册新用户
// @Description 注册学员账号，密码至少 8 位
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或邮箱已被注册"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// Login godoc
// @Summary 用户登录
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResult} "登录成功"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	res, err := c.AuthService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Session godoc
// @Summary 当前会话
// @Description 返回令牌对应的用户，已注销的账号返回 401
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 401 {object} util.Response
// @Router /api/session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	user, err := c.AuthService.GetSession(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// ForgotPassword godoc
// @Summary 申请重置密码
// @Description 无论邮箱是否存在都返回成功
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.ForgotPasswordRequest true "邮箱"
// @Success 200 {object} util.Response
// @Router /api/password/forgot [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req service.ForgotPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.AuthService.RequestPasswordReset(ctx.Request.Context(), req.Email); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"sent": true})
}

// ResetPassword godoc
// @Summary 重置密码
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.ResetPasswordRequest true "令牌和新密码"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "令牌无效或已过期"
// @Router /api/password/reset [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req service.ResetPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.AuthService.ResetPassword(ctx.Request.Context(), req.Token, req.Password); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reset": true})
}
