package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hospitality-backoffice/controllers"
	"hospitality-backoffice/middleware"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	Currency     *controllers.CurrencyController
	Room         *controllers.RoomController
	Availability *controllers.AvailabilityController
	Booking      *controllers.BookingController
	Invoice      *controllers.InvoiceController
	Review       *controllers.ReviewController
	Settings     *controllers.SettingsController
}

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(ctl Controllers, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", controllers.ActorHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		currencies := api.Group("/currencies")
		{
			currencies.GET("", ctl.Currency.ListCurrencies)
			// static paths before /:id
			currencies.POST("/convert", ctl.Currency.Convert)
			currencies.POST("/activate", ctl.Currency.Activate)
			currencies.POST("/deactivate", ctl.Currency.Deactivate)
			currencies.PUT("/:id/rate", ctl.Currency.UpdateRate)
			currencies.GET("/:id/history", ctl.Currency.RateHistory)
			currencies.DELETE("/:id", ctl.Currency.DeleteCurrency)
		}

		rooms := api.Group("/rooms")
		{
			rooms.POST("", ctl.Room.CreateRoom)
			rooms.GET("/:id", ctl.Room.GetRoom)
			rooms.GET("/:id/calendar", ctl.Room.GetCalendar)
			rooms.GET("/:id/quote", ctl.Room.GetQuote)
		}

		availabilities := api.Group("/availabilities")
		{
			availabilities.POST("/bulk", ctl.Availability.BulkUpdate)
			availabilities.POST("/bulk-price", ctl.Availability.BulkPrice)
			availabilities.POST("/:id/toggle-block", ctl.Availability.ToggleBlock)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("", ctl.Booking.GetBookings)
			bookings.POST("", ctl.Booking.CreateBooking)
			bookings.GET("/:id", ctl.Booking.GetBookingDetails)
			bookings.GET("/:id/history", ctl.Booking.GetBookingHistory)
			bookings.POST("/:id/confirm", ctl.Booking.ConfirmBooking)
			bookings.POST("/:id/cancel", ctl.Booking.CancelBooking)
			bookings.POST("/:id/check-in", ctl.Booking.CheckInBooking)
			bookings.POST("/:id/check-out", ctl.Booking.CheckoutBooking)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", ctl.Invoice.CreateInvoice)
			invoices.POST("/generate", ctl.Invoice.GenerateInvoices)
			invoices.GET("/:id", ctl.Invoice.GetInvoice)
			invoices.POST("/:id/calculate", ctl.Invoice.CalculateInvoice)
			invoices.POST("/:id/send", ctl.Invoice.SendInvoice)
			invoices.POST("/:id/pay", ctl.Invoice.PayInvoice)
		}

		reviews := api.Group("/reviews")
		{
			reviews.POST("", ctl.Review.CreateReview)
			reviews.POST("/:id/approve", ctl.Review.ApproveReview)
			reviews.POST("/:id/reject", ctl.Review.RejectReview)
			reviews.POST("/:id/respond", ctl.Review.RespondReview)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", ctl.Settings.GetSettings)
			settings.PUT("/:key", ctl.Settings.UpdateSetting)
		}
	}

	return r
}
