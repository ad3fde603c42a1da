package middleware

import (
	"AapdaMitra/pkg/i18n"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// LangKey is the gin context key holding the negotiated language.
const LangKey = "lang"

// LanguageMiddleware picks the response language from the lang query
// parameter, then Accept-Language, then the bundle default.
func LanguageMiddleware(i18nSupport *i18n.I18nSupport) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if q := c.Query("lang"); q != "" && i18nSupport.Supported(q) {
			lang = i18nSupport.Match(language.Make(q))
		} else {
			tags, _, _ := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
			lang = i18nSupport.Match(tags...)
		}
		c.Set(LangKey, lang)
		c.Next()
	}
}

// Lang returns the language chosen by LanguageMiddleware.
func Lang(c *gin.Context) string {
	return c.GetString(LangKey)
}
