package observability

import (
	"context"

	"github.com/keymarket/ledger-service/internal/infrastructure/observability"
)

func Setup(serviceName string) func(context.Context) error {
	observability.InitLogger()
	observability.InitMetrics()
	return observability.InitTracing(serviceName)
}
