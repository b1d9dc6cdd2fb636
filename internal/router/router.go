package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/handler"
	"github.com/adhamaliv/event-seat-booking/internal/middleware"
)

// RegisterRoutes registers routes that carry no middleware at all.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated storefront read endpoints.
// The cache middleware sits only on these routes; mutating endpoints must
// never be served from cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	// Event browsing with search, category and venue filters.
	g.GET("/events", p.ListEvents)
	g.GET("/events/:id", p.GetEvent)
	// Seat map with derived AVAILABLE/HELD/BOOKED statuses, grouped by section.
	g.GET("/events/:id/seats", p.SeatMap)
	// Tier price list derived from the event's seats.
	g.GET("/events/:id/pricing", p.Pricing)
	// The one public setting the storefront needs before rendering prices.
	g.GET("/settings/currency", p.Currency)
}

// RegisterBooking registers the anonymous checkout endpoints.  The rate
// limiter wraps all of them; holds and bookings are the endpoints worth
// abusing.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", limiter)
	g.POST("/bookings", b.CreateBooking)
	g.POST("/events/:id/hold", b.HoldSeats)
	g.DELETE("/events/:id/hold", b.ReleaseHolds)
}

// RegisterAdmin registers back-office authentication plus every protected
// endpoint.  Setup and login are open; everything else requires a valid
// admin token.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, ev *handler.AdminEventHandler, s *handler.SettingsHandler, b *handler.BookingHandler, jwtSecret string) {
	e.POST("/v1/admin/setup", a.Setup)
	e.POST("/v1/admin/login", a.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	// Event CRUD.
	g.POST("/events", ev.CreateEvent)
	g.PUT("/events/:id", ev.UpdateEvent)
	g.DELETE("/events/:id", ev.DeleteEvent)

	// Seat catalog population and pricing.
	g.POST("/events/populate-all", ev.PopulateAll)
	g.POST("/events/:id/populate", ev.PopulateEvent)
	g.PUT("/events/:id/pricing", ev.UpdatePricing)

	// Booking back office.
	g.GET("/bookings/:id", b.GetBooking)
	g.GET("/events/:id/bookings", b.ListEventBookings)
	g.POST("/bookings/:id/cancel", b.CancelBooking)

	// Runtime settings.
	g.GET("/settings", s.List)
	g.PUT("/settings", s.Update)
	g.PUT("/settings/:key", s.UpdateOne)
}
