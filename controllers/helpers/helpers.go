package helpers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gookit/validate"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
)

var (
	AuthzInvalidSession    = "authz.invalid_session"
	AuthzInvalidPermission = "authz.invalid_permission"
	JwtDecodeAndVerify     = "jwt.decode_and_verify"
	ServerInternalError    = "server.internal_error"
	InvalidMessageBody     = "server.method.invalid_message_body"
	InvalidQuery           = "server.method.invalid_query"
)

type Errors struct {
	Errors  []string `json:"errors"`
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message,omitempty"`
}

func (e Errors) Size() int {
	return len(e.Errors)
}

func Vaildate(payload interface{}, err_src *Errors) {
	v := validate.Struct(payload)
	if !v.Validate() {
		for _, errs := range v.Errors.All() {
			for _, err := range errs {
				err_src.Errors = append(err_src.Errors, err)
			}
		}
	}
}

// VaildateMessage maps every failed rule to "<prefix>.invalid_{field}".
func VaildateMessage(prefix string) validate.MS {
	invalid_message := prefix + ".invalid_{field}"

	return validate.MS{
		"required":         invalid_message,
		"uint":             invalid_message,
		"int":              invalid_message,
		"in":               invalid_message,
		"VaildateAmount":   prefix + ".non_positive_amount",
		"VaildateStatus":   invalid_message,
		"VaildateMethod":   invalid_message,
		"VaildateTimeFrom": invalid_message,
	}
}

func VaildateTranslateFields() validate.MS {
	return validate.MS{
		"TimeFrom":      "time_from",
		"TimeTo":        "time_to",
		"Limit":         "limit",
		"Page":          "page",
		"Status":        "status",
		"Amount":        "amount",
		"Method":        "method",
		"TransactionID": "transaction_id",
	}
}

// StatusOf is the HTTP status for a ledger error kind.
func StatusOf(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation, ledger.KindInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case ledger.KindAuth:
		return fiber.StatusForbidden
	case ledger.KindNotFound:
		return fiber.StatusNotFound
	case ledger.KindConflict:
		return fiber.StatusConflict
	case ledger.KindDependency:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ResponseError writes err as an error body. Internal causes are logged,
// never returned to the client.
func ResponseError(c *fiber.Ctx, err error) error {
	e := ledger.AsError(err)
	status := StatusOf(e.Kind)

	if status >= fiber.StatusInternalServerError && config.Logger != nil {
		config.Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}

	return c.Status(status).JSON(Errors{
		Errors:  []string{e.Code},
		Kind:    string(e.Kind),
		Message: e.Message,
	})
}

func GetCurrentUser(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals("CurrentUser").(*models.Account)

	return account
}
