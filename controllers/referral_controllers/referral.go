package referral_controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/controllers/entities"
	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/controllers/queries"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
)

func GetReferralSummaries(c *fiber.Ctx) error {
	CurrentUser := helpers.GetCurrentUser(c)

	var errors = new(helpers.Errors)
	params := new(queries.ReferralSummaryQueries)

	if err := c.QueryParser(params); err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{helpers.InvalidQuery},
		})
	}

	helpers.Vaildate(params, errors)
	if errors.Size() > 0 {
		return c.Status(422).JSON(errors)
	}

	time_from, time_to := params.Range(time.Now())

	var summaries []*models.ReferralSummary

	err := config.DataBase.
		WithContext(c.UserContext()).
		Where(
			"account_id = ? AND day >= ? AND day <= ?",
			CurrentUser.ID,
			time_from,
			time_to,
		).
		Order("day desc").
		Find(&summaries).Error
	if err != nil {
		return helpers.ResponseError(c, ledger.ErrPersistenceFailure.Wrap(err))
	}

	summary_entities := make([]*entities.ReferralSummaryEntity, 0, len(summaries))
	for _, summary := range summaries {
		summary_entities = append(summary_entities, &entities.ReferralSummaryEntity{
			ID:               summary.ID,
			Day:              summary.Day.Format("2006-01-02"),
			Earned:           summary.Earned,
			FriendsDeposited: summary.FriendsDeposited,
			Friends:          summary.Friends,
			CreatedAt:        summary.CreatedAt,
			UpdatedAt:        summary.UpdatedAt,
		})
	}

	return c.Status(200).JSON(summary_entities)
}

func GetCommissions(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := helpers.GetCurrentUser(c)
		errors := new(helpers.Errors)
		params := new(queries.CommissionQueries)
		if err := c.QueryParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidQuery},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		if params.Limit == 0 {
			params.Limit = 100
		}

		if params.Page == 0 {
			params.Page = 1
		}

		commissions, err := svc.ListCommissions(c.UserContext(), params.Filter(CurrentUser.ID))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		commission_entities := make([]*entities.CommissionEntity, 0, len(commissions))

		for _, commission := range commissions {
			commission_entities = append(commission_entities, &entities.CommissionEntity{
				ID:            commission.ID,
				ReferredID:    commission.ReferredID,
				DepositID:     commission.DepositID,
				DepositAmount: commission.DepositAmount,
				Percentage:    commission.Percentage,
				EarnAmount:    commission.Amount,
				CreatedAt:     commission.CreatedAt,
			})
		}

		c.Response().Header.Add("page", strconv.FormatInt(int64(params.Page), 10))
		c.Response().Header.Add("per-page", strconv.FormatInt(int64(len(commissions)), 10))

		return c.Status(200).JSON(commission_entities)
	}
}
