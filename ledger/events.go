package ledger

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	SubjectDepositApproved     = "ledger.deposit.approved"
	SubjectDepositRejected     = "ledger.deposit.rejected"
	SubjectWithdrawalRequested = "ledger.withdrawal.requested"
	SubjectWithdrawalApproved  = "ledger.withdrawal.approved"
	SubjectWithdrawalRejected  = "ledger.withdrawal.rejected"
	SubjectCommissionCredited  = "ledger.commission.credited"
)

// Publisher delivers ledger events after the owning transaction commits.
type Publisher interface {
	Publish(subject string, payload []byte) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(conn *nats.Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func (p *NatsPublisher) Publish(subject string, payload []byte) error {
	return p.conn.Publish(subject, payload)
}

type NopPublisher struct{}

func (NopPublisher) Publish(string, []byte) error { return nil }

// publish is best-effort: a lost event never fails a committed operation.
func (s *Service) publish(subject string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("subject", subject).Error("failed to encode ledger event")
		return
	}

	if err := s.publisher.Publish(subject, payload); err != nil {
		s.logger.WithFields(logrus.Fields{
			"subject": subject,
		}).WithError(err).Warn("failed to publish ledger event")
	}
}
