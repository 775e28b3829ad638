package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/routes"
	"github.com/payvest/ledger/types"
)

func NewService() *ledger.Service {
	var earnings ledger.EarningsAggregator = ledger.NewSQLAggregator(config.DataBase)
	if config.Redis != nil {
		earnings = ledger.NewCachedAggregator(earnings, config.Redis, config.Ledger.EarningsCacheTTL, config.Logger)
	}
	earnings = ledger.NewBoundedAggregator(earnings, config.Ledger.EarningsTimeout, config.Logger)

	var publisher ledger.Publisher = ledger.NopPublisher{}
	if config.Nats != nil {
		publisher = ledger.NewNatsPublisher(config.Nats)
	}

	methods := make([]types.WithdrawalMethod, 0, len(config.Ledger.WithdrawalMethods))
	for _, method := range config.Ledger.WithdrawalMethods {
		methods = append(methods, types.WithdrawalMethod(method))
	}

	return ledger.NewService(ledger.Options{
		Repository:           ledger.NewGormRepository(config.DataBase),
		Earnings:             earnings,
		Publisher:            publisher,
		Logger:               config.Logger,
		CommissionPercentage: decimal.NewNullDecimal(config.Ledger.CommissionPercentage),
		MinimumWithdrawal:    decimal.NewNullDecimal(config.Ledger.MinimumWithdrawal),
		WithdrawalMethods:    methods,
	})
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	r := routes.SetupRouter(NewService())
	// running
	if err := r.Listen(config.Getenv("HTTP_ADDR", ":3000")); err != nil {
		config.Logger.Fatal(err)
	}
}
