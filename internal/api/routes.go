package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)

	profile := api.Group("/profile", handler.AuthRequired)
	profile.Get("", handler.GetProfile)
	profile.Put("", handler.OwnerOnly, handler.UpdateProfile)

	days := api.Group("/days", handler.AuthRequired)
	days.Get("", handler.GetDays)
	days.Get("/:date", handler.GetDay)
	days.Put("/:date", handler.OwnerOnly, handler.UpsertDay)
	days.Delete("/:date", handler.OwnerOnly, handler.DeleteDay)

	cycle := api.Group("/cycle", handler.AuthRequired)
	cycle.Get("/info", handler.GetCycleInfo)
	cycle.Get("/prediction", handler.GetPrediction)
	cycle.Get("/phases", handler.GetPhaseCorrelations)
	cycle.Get("/anomalies", handler.GetAnomalies)
	cycle.Get("/calendar", handler.GetCalendar)

	app.Use(handler.NotFound)
}
