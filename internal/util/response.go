package util

import (
	"net/http"
	"satistrain_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   ErrorKind   `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized",
		Error:   KindAuthentication,
	})
}

func Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, Response{
		Code:    http.StatusForbidden,
		Message: "Forbidden",
		Error:   KindPermission,
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: message,
		Error:   KindValidation,
	})
}

// HandleError 按错误分类写响应，5xx 记录日志
func HandleError(c *gin.Context, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
	}

	c.JSON(code, Response{
		Code:    code,
		Message: PublicMessage(err),
		Error:   KindOf(err),
	})
}
