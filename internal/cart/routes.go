package cart

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra carritos, quotes sin estado y validación de cupones.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/carts", func(route chi.Router) {
		route.Post("/", handler.Create)
		route.Get("/{id}", handler.Get)

		route.Post("/{id}/items", handler.AddItem)
		route.Patch("/{id}/items/{itemID}", handler.SetQuantity)
		route.Delete("/{id}/items/{itemID}", handler.RemoveItem)

		route.Put("/{id}/coupon", handler.ApplyCoupon)
		route.Delete("/{id}/coupon", handler.ClearCoupon)

		route.Get("/{id}/quote", handler.Quote)
		route.Post("/{id}/checkout", handler.Checkout)
	})

	route.Post("/quotes", handler.QuoteLines)
	route.Post("/coupons/validate", handler.ValidateCoupon)
}
