package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuebook_verification_codes_issued_total",
		Help: "Verification codes and reset tokens issued, by purpose.",
	}, []string{"purpose"})

	Verified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuebook_verification_verified_total",
		Help: "Successful verifications, by purpose.",
	}, []string{"purpose"})

	Failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuebook_verification_failures_total",
		Help: "Failed verification operations, by purpose and reason.",
	}, []string{"purpose", "reason"})

	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuebook_signins_total",
		Help: "Sign-in outcomes.",
	}, []string{"outcome"})
)
