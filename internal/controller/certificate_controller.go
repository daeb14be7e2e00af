package controller

import (
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// List godoc
// @Summary 我的证书
// @Tags 证书
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Certificate}
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	certs, err := c.CertificateService.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// Verify godoc
// @Summary 校验证书编号
// @Tags 证书
// @Produce  json
// @Param   number path string true "证书编号"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.Response
// @Router /api/certificates/verify/{number} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, err := c.CertificateService.GetByNumber(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}
