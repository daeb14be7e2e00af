package controller

import (
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// bindJSON 绑定请求体，失败时直接写 400
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		util.BadRequest(ctx, util.BindingMessage(err))
		return false
	}
	return true
}

// currentUserID 取令牌中的用户 ID，未登录时写 401
func currentUserID(ctx *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return claims.UserID, true
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParamID(ctx, name)
	if err != nil {
		util.HandleError(ctx, err)
		return 0, false
	}
	return id, true
}
