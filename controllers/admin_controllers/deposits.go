package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/controllers"
	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/controllers/queries"
	"github.com/payvest/ledger/ledger"
)

func GetDeposits(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := new(helpers.Errors)
		params := new(queries.ListQueries)

		if err := c.QueryParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidQuery},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		deposits, err := svc.ListDeposits(c.UserContext(), params.Filter(0))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(controllers.DepositsToJSON(deposits))
	}
}

func UpdateDeposit(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return helpers.ResponseError(c, ledger.ErrDepositNotFound)
		}

		errors := new(helpers.Errors)
		params := new(helpers.DepositStatusParams)

		if err := c.BodyParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageBody},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		decision, err := svc.SetDepositStatus(c.UserContext(), uint64(id), params.Status)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(decision.ToJSON())
	}
}
