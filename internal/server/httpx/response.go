// Package httpx — общие кирпичики HTTP-слоя: формат ответа,
// идентичность пользователя в контексте gin и валидация тел запросов.
// Любой ответ имеет вид {"message": ..., "body": ...}.
package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
)

// Response — тело любого ответа.
type Response struct {
	Message string `json:"message"`
	Body    any    `json:"body,omitempty"`
}

// OK отвечает успешным JSON.
func OK(c *gin.Context, status int, message string, body any) {
	c.JSON(status, Response{Message: message, Body: body})
}

// Fail отвечает ошибкой: статус по виду ошибки, сообщение без внутренних деталей.
// Внутренние ошибки и недоступность хранилища пишутся в лог целиком.
func Fail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"kind":   common.KindOf(err).String(),
		}).WithError(err).Error("Ошибка обработки запроса")
	}
	c.AbortWithStatusJSON(status, Response{Message: common.PublicMessage(err)})
}

// BindJSON разбирает и валидирует тело запроса.
// При ошибке сам отвечает 400 и возвращает false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, common.Wrap(common.KindInvalidArgument, describeBindError(err), err))
		return false
	}
	return true
}

// describeBindError превращает ошибки валидатора в короткое сообщение для клиента.
func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "請求格式錯誤"
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			parts = append(parts, field+" 為必填欄位")
		case "email":
			parts = append(parts, field+" 格式錯誤")
		case "min", "gte":
			parts = append(parts, field+" 不可小於 "+e.Param())
		case "max", "lte":
			parts = append(parts, field+" 不可大於 "+e.Param())
		case "gt":
			parts = append(parts, field+" 必須大於 "+e.Param())
		default:
			parts = append(parts, field+" 無效")
		}
	}
	return strings.Join(parts, "; ")
}
