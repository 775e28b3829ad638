package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/payvest/ledger/controllers"
	"github.com/payvest/ledger/controllers/admin_controllers"
	"github.com/payvest/ledger/controllers/referral_controllers"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/routes/middlewares"
)

func SetupRouter(svc *ledger.Service) *fiber.App {
	app := fiber.New()

	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(ledger.Registry, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metrics(c.Context())
		return nil
	})

	api := app.Group("/api/v1")

	api.Get("/public/timestamp", controllers.GetTimestamp)
	api.Get("/public/health", controllers.GetHealth)

	account := api.Group("/account", middlewares.Authenticate(svc))
	account.Get("/balance", controllers.GetBalance(svc))
	account.Get("/deposits", controllers.GetDeposits(svc))
	account.Post("/deposits", controllers.CreateDeposit(svc))
	account.Post("/withdraw", controllers.Withdraw(svc))
	account.Get("/withdrawals", controllers.GetWithdrawals(svc))

	referral := api.Group("/referral", middlewares.Authenticate(svc))
	referral.Get("/commissions", referral_controllers.GetCommissions(svc))
	referral.Get("/summaries", referral_controllers.GetReferralSummaries)

	admin := api.Group("/admin", middlewares.Authenticate(svc), middlewares.AdminVaildator)
	admin.Get("/deposits", admin_controllers.GetDeposits(svc))
	admin.Patch("/deposits/:id", admin_controllers.UpdateDeposit(svc))
	admin.Get("/withdrawals", admin_controllers.GetWithdrawals(svc))
	admin.Patch("/withdrawals/:id", admin_controllers.UpdateWithdrawal(svc))

	return app
}
