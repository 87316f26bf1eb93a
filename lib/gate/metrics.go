package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateproof_challenges_issued",
		Help: "The total number of challenges issued",
	})

	redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateproof_redemptions",
		Help: "The total number of redemption attempts by outcome",
	}, []string{"outcome"})
)
