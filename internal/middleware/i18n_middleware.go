package middleware

import (
	"github.com/gin-gonic/gin"
	"shortlink-proxy/internal/i18n"
)

// I18nMiddleware 按 Accept-Language 选择语言，把 Localizer 放进请求 context
func I18nMiddleware(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := tr.Match(c.GetHeader("Accept-Language"))
		ctx := i18n.WithLocalizer(c.Request.Context(), tr.Localizer(lang))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
