package ledger

import "github.com/shopspring/decimal"

func (s *Service) CommissionPercentage() decimal.Decimal {
	return s.commissionPercentage
}

func (s *Service) MinimumWithdrawal() decimal.Decimal {
	return s.minimumWithdrawal
}

func (s *Service) WithdrawalMethodCount() int {
	return len(s.methods)
}
