package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/view"
)

// Locale picks the message catalog for the request from ?lang, then Accept-Language,
// falling back to the configured default.
func Locale(defaultLocale string) fiber.Handler {
	fallback := view.NewCatalog(defaultLocale)

	return func(c *fiber.Ctx) error {
		catalog := fallback
		if lang := strings.TrimSpace(c.Query("lang")); lang != "" && view.SupportedLocale(lang) {
			catalog = view.NewCatalog(lang)
		} else if accepted := c.AcceptsLanguages("en", "ru"); accepted != "" && c.Get(fiber.HeaderAcceptLanguage) != "" {
			catalog = view.NewCatalog(accepted)
		}
		c.Locals("catalog", catalog)
		return c.Next()
	}
}

// CatalogFrom returns the catalog chosen by Locale, or English.
func CatalogFrom(c *fiber.Ctx) view.Catalog {
	if catalog, ok := c.Locals("catalog").(view.Catalog); ok {
		return catalog
	}
	return view.NewCatalog("")
}
