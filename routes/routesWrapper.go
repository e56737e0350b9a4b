package routes

import (
	"kilnhouse/notifications"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, hub *notifications.Hub) {
	AddAuthRoutes(router)
	AddProfileRoutes(router)
	AddWorkshopRoutes(router)
	AddExperienceRoutes(router)
	AddProductRoutes(router)
	AddAvailabilityRoutes(router)
	AddBookingRoutes(router)
	AddOrderRoutes(router)
	AddCouponRoutes(router)
	AddPaymentRoutes(router)
	AddCustomOrderRoutes(router)
	AddTestimonialRoutes(router)
	AddMediaRoutes(router)
	AddSettingsRoutes(router)
	AddNotificationRoutes(router)
	AddAdminRoutes(router)
	AddWebsockRoutes(router, hub)
	AddStaticRoutes(router)
}
