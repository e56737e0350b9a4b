package routes

import (
	"net/http"

	"kilnhouse/admin"
	"kilnhouse/auth"
	"kilnhouse/booking"
	"kilnhouse/custorders"
	"kilnhouse/experiences"
	"kilnhouse/filemgr"
	"kilnhouse/invoice"
	"kilnhouse/middleware"
	"kilnhouse/notifications"
	"kilnhouse/orders"
	"kilnhouse/payments"
	"kilnhouse/products"
	"kilnhouse/profile"
	"kilnhouse/ratelim"
	"kilnhouse/settings"
	"kilnhouse/testimonials"
	"kilnhouse/workshops"

	"github.com/julienschmidt/httprouter"
)

func adminOnly(h httprouter.Handle) httprouter.Handle {
	return middleware.RequireRole("admin", h)
}

// wrapIdempotent runs the payments idempotency layer around a handle. Only
// used on param-free routes, so empty Params are fine.
func wrapIdempotent(h httprouter.Handle) httprouter.Handle {
	wrapped := payments.IdempotencyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, httprouter.Params{})
	}))
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		wrapped.ServeHTTP(w, r)
	}
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir("static/uploads"))
	router.ServeFiles("/static/invoices/*filepath", http.Dir("static/invoices"))
}

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.LogoutUser))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(middleware.Authenticate(auth.RefreshToken)))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/profile", middleware.Authenticate(profile.EditProfile))
	router.PUT("/api/profile/password", middleware.Authenticate(profile.ChangePassword))
}

func AddWorkshopRoutes(router *httprouter.Router) {
	router.GET("/api/workshops", ratelim.RateLimit(workshops.GetWorkshops))
	router.GET("/api/workshops/:id", ratelim.RateLimit(workshops.GetWorkshop))
	router.POST("/api/workshops", adminOnly(workshops.CreateWorkshop))
	router.PUT("/api/workshops/:id", adminOnly(workshops.EditWorkshop))
	router.DELETE("/api/workshops/:id", adminOnly(workshops.DeleteWorkshop))
}

func AddExperienceRoutes(router *httprouter.Router) {
	router.GET("/api/experiences", ratelim.RateLimit(experiences.GetExperiences))
	router.GET("/api/experiences/:id", ratelim.RateLimit(experiences.GetExperience))
	router.POST("/api/experiences", adminOnly(experiences.CreateExperience))
	router.PUT("/api/experiences/:id", adminOnly(experiences.EditExperience))
	router.DELETE("/api/experiences/:id", adminOnly(experiences.DeleteExperience))
}

func AddProductRoutes(router *httprouter.Router) {
	router.GET("/api/products", ratelim.RateLimit(products.GetProducts))
	router.GET("/api/products/:id", ratelim.RateLimit(products.GetProduct))
	// static sibling of :id would clash in httprouter, hence its own prefix
	router.GET("/api/product-categories", ratelim.RateLimit(products.GetProductCategories))
	router.POST("/api/products", adminOnly(products.CreateProduct))
	router.PUT("/api/products/:id", adminOnly(products.EditProduct))
	router.DELETE("/api/products/:id", adminOnly(products.DeleteProduct))
}

func AddAvailabilityRoutes(router *httprouter.Router) {
	router.GET("/api/availability/:entityType/:entityId", ratelim.RateLimit(booking.GetAvailability))
	router.GET("/api/slots/:entityType/:entityId", adminOnly(booking.GetSlots))
	router.PUT("/api/slots/:entityType/:entityId", adminOnly(booking.ReplaceSlots))
}

func AddBookingRoutes(router *httprouter.Router) {
	router.POST("/api/bookings", ratelim.RateLimit(middleware.OptionalAuth(booking.CreateBooking)))
	router.GET("/api/bookings", adminOnly(booking.GetBookings))
	router.GET("/api/bookings/:id", ratelim.RateLimit(booking.GetBooking))
	router.POST("/api/bookings/:id/cancel", ratelim.RateLimit(booking.CancelBooking))
	router.PATCH("/api/bookings/:id/status", adminOnly(booking.UpdateBookingStatus))
	router.GET("/api/bookings/:id/pass", ratelim.RateLimit(booking.BookingPass))
	router.POST("/api/passes/verify", ratelim.RateLimit(booking.VerifyPass))
}

func AddOrderRoutes(router *httprouter.Router) {
	router.POST("/api/orders", ratelim.RateLimit(middleware.OptionalAuth(orders.CreateOrder)))
	router.GET("/api/orders", adminOnly(orders.GetOrders))
	router.GET("/api/orders/:id", ratelim.RateLimit(orders.GetOrder))
	router.POST("/api/orders/:id/cancel", ratelim.RateLimit(orders.CancelOrder))
	router.PATCH("/api/orders/:id/status", adminOnly(orders.UpdateOrderStatus))

	router.POST("/api/orders/:id/invoice", adminOnly(invoice.GenerateInvoice))
	router.GET("/api/orders/:id/invoice", ratelim.RateLimit(invoice.GetInvoice))
}

func AddCouponRoutes(router *httprouter.Router) {
	router.POST("/api/coupons/validate", ratelim.RateLimit(orders.ValidateCoupon))
	router.GET("/api/coupons", adminOnly(orders.GetCoupons))
	router.POST("/api/coupons", adminOnly(orders.CreateCoupon))
	router.DELETE("/api/coupons/:code", adminOnly(orders.DeleteCoupon))
}

func AddPaymentRoutes(router *httprouter.Router) {
	router.POST("/api/payments/verify", ratelim.RateLimit(middleware.OptionalAuth(wrapIdempotent(payments.VerifyPayment))))
	router.GET("/api/payments", adminOnly(payments.GetPayments))
}

func AddCustomOrderRoutes(router *httprouter.Router) {
	router.POST("/api/custom-orders", ratelim.RateLimit(custorders.SubmitRequest))
	router.GET("/api/custom-orders", adminOnly(custorders.GetRequests))
	router.GET("/api/custom-orders/:id", adminOnly(custorders.GetRequest))
	router.PATCH("/api/custom-orders/:id/status", adminOnly(custorders.UpdateRequestStatus))
}

func AddTestimonialRoutes(router *httprouter.Router) {
	router.GET("/api/testimonials", ratelim.RateLimit(testimonials.GetTestimonials))
	router.GET("/api/testimonials/all", adminOnly(testimonials.GetAllTestimonials))
	router.POST("/api/testimonials", adminOnly(testimonials.CreateTestimonial))
	router.PUT("/api/testimonials/:id", adminOnly(testimonials.EditTestimonial))
	router.DELETE("/api/testimonials/:id", adminOnly(testimonials.DeleteTestimonial))
}

func AddMediaRoutes(router *httprouter.Router) {
	router.PUT("/api/images/:entitytype/:entityid", adminOnly(filemgr.EditImage))
}

func AddSettingsRoutes(router *httprouter.Router) {
	router.GET("/api/settings/public", ratelim.RateLimit(settings.GetPublicSettings))
	router.GET("/api/settings/business", adminOnly(settings.GetBusinessSettings))
	router.PUT("/api/settings/business", adminOnly(settings.UpdateBusinessSettings))
	router.POST("/api/settings/business/logo", adminOnly(settings.UploadLogo))
}

func AddNotificationRoutes(router *httprouter.Router) {
	router.GET("/api/notifications", adminOnly(notifications.GetNotifications))
	router.POST("/api/notifications/read", adminOnly(notifications.MarkRead))
}

func AddAdminRoutes(router *httprouter.Router) {
	router.GET("/api/admin/stats", adminOnly(admin.GetDashboardStats))
}

// AddWebsockRoutes mounts the realtime endpoints. Tokens ride the query
// string; the sockets validate them during the handshake.
func AddWebsockRoutes(router *httprouter.Router, hub *notifications.Hub) {
	router.GET("/ws/admin/notifications", notifications.AdminSocket(hub))
	router.GET("/ws/availability/:entityType/:entityId", notifications.AvailabilitySocket(hub))
}
