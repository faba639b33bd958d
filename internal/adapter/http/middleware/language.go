package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/AmimerNabil/achieveai/pkg/translator"
)

var supportedLanguages = language.NewMatcher([]language.Tag{language.English, language.French})

// LanguageMiddleware picks the response language from the Accept-Language header.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := translator.LanguageEn
		if header := c.GetHeader("Accept-Language"); header != "" {
			tags, _, err := language.ParseAcceptLanguage(header)
			if err == nil && len(tags) > 0 {
				_, index, confidence := supportedLanguages.Match(tags...)
				if confidence != language.No && index == 1 {
					lang = translator.LanguageFr
				}
			}
		}
		c.Set("lang", lang)
		c.Next()
	}
}

func GetLang(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if s, ok := lang.(string); ok {
			return s
		}
	}
	return translator.LanguageEn
}
