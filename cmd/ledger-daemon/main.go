package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/jobs/cron"
	"github.com/payvest/ledger/workers/daemons"
)

func CreateWorker(id string) daemons.Worker {
	switch id {
	case "cron_job":
		return daemons.NewCronJob(cron.NewReferralSummaryJob(), cron.NewPendingAuditJob())
	case "referral_summary":
		return daemons.NewCronJob(cron.NewReferralSummaryJob())
	case "pending_audit":
		return daemons.NewCronJob(cron.NewPendingAuditJob())
	default:
		return nil
	}
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	ARVG := os.Args[1:]
	if len(ARVG) == 0 {
		ARVG = []string{"cron_job"}
	}

	var wg sync.WaitGroup
	for _, id := range ARVG {
		worker := CreateWorker(id)
		if worker == nil {
			config.Logger.Fatalf("unknown worker: %s", id)
		}

		config.Logger.Info("Start ledger-daemon: " + id)

		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start()
		}()
	}

	wg.Wait()
}
