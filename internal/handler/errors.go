package handler

import (
	"errors"

	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

// handleServiceError 将领域错误映射为 HTTP 响应
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidName):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrDuplicateLicense),
		errors.Is(err, service.ErrAlreadyActivated),
		errors.Is(err, service.ErrAlreadyInTeam),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrDuplicateInvite),
		errors.Is(err, service.ErrInvitationHandled),
		errors.Is(err, service.ErrInvitationExpired),
		errors.Is(err, service.ErrQuotaExceeded):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrDomainNotAllowed),
		errors.Is(err, service.ErrDomainMismatch),
		errors.Is(err, service.ErrCannotRemoveOwner),
		errors.Is(err, service.ErrCannotDemoteOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		response.ServerError(c, "操作失败")
	}
}
