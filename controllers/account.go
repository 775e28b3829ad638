package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/controllers/queries"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
)

func GetBalance(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)

		balances, err := svc.Balances(c.UserContext(), CurrentUser.ID)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(balances.ToJSON())
	}
}

func CreateDeposit(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)

		var errors = new(helpers.Errors)
		params := new(helpers.DepositParams)

		if err := c.BodyParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageBody},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		deposit, err := svc.SubmitDeposit(c.UserContext(), CurrentUser.ID, params.Amount, params.Method, params.TransactionRef)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(201).JSON(deposit.ToJSON())
	}
}

func GetDeposits(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)

		params, errors := parseListQueries(c)
		if errors != nil {
			return c.Status(422).JSON(errors)
		}

		deposits, err := svc.ListDeposits(c.UserContext(), params.Filter(CurrentUser.ID))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		setPageHeaders(c, params.Page, len(deposits))

		return c.Status(200).JSON(DepositsToJSON(deposits))
	}
}

func Withdraw(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)

		var errors = new(helpers.Errors)
		params := new(helpers.WithdrawParams)

		if err := c.BodyParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageBody},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		receipt, err := svc.RequestWithdrawal(c.UserContext(), params.ToRequest(CurrentUser, c.Get("Idempotency-Key")))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		status := 201
		if receipt.Replayed {
			status = 200
		}

		return c.Status(status).JSON(receipt.ToJSON())
	}
}

func GetWithdrawals(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)

		params, errors := parseListQueries(c)
		if errors != nil {
			return c.Status(422).JSON(errors)
		}

		withdrawals, err := svc.ListWithdrawals(c.UserContext(), params.Filter(CurrentUser.ID))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		setPageHeaders(c, params.Page, len(withdrawals))

		return c.Status(200).JSON(WithdrawalsToJSON(withdrawals))
	}
}

func parseListQueries(c *fiber.Ctx) (*queries.ListQueries, *helpers.Errors) {
	errors := new(helpers.Errors)
	params := new(queries.ListQueries)

	if err := c.QueryParser(params); err != nil {
		errors.Errors = append(errors.Errors, helpers.InvalidQuery)
		return nil, errors
	}

	helpers.Vaildate(params, errors)
	if errors.Size() > 0 {
		return nil, errors
	}

	return params, nil
}

func setPageHeaders(c *fiber.Ctx, page, size int) {
	if page == 0 {
		page = 1
	}

	c.Response().Header.Add("page", strconv.Itoa(page))
	c.Response().Header.Add("per-page", strconv.Itoa(size))
}

func DepositsToJSON(deposits []*models.Deposit) []models.DepositJSON {
	deposits_json := make([]models.DepositJSON, 0, len(deposits))
	for _, deposit := range deposits {
		deposits_json = append(deposits_json, deposit.ToJSON())
	}

	return deposits_json
}

func WithdrawalsToJSON(withdrawals []*models.Withdrawal) []models.WithdrawalJSON {
	withdrawals_json := make([]models.WithdrawalJSON, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		withdrawals_json = append(withdrawals_json, withdrawal.ToJSON())
	}

	return withdrawals_json
}
