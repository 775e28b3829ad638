package config

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

var Nats *nats.Conn

func ConnectNats() error {
	url := Getenv("NATS_URL", nats.DefaultURL)
	options := []nats.Option{
		nats.Name("ledger"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(-1),
	}

	if len(os.Getenv("NATS_USER")) > 0 {
		options = append(options, nats.UserInfo(os.Getenv("NATS_USER"), os.Getenv("NATS_PASS")))
	}

	n, err := nats.Connect(url, options...)
	if err != nil {
		return err
	}

	Nats = n

	return nil
}
