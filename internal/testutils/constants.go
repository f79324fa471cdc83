package testutils

// Dataset size constants.
const (
	// DefaultItemCount is the standard number of files per review case.
	DefaultItemCount = 8

	// DefaultParticipantCount is the standard number of submissions
	// per review case.
	DefaultParticipantCount = 5

	// MinimumItemCount is the minimum number of files required for a
	// review case to be meaningful.
	MinimumItemCount = 2

	// MinimumParticipantCount is the minimum number of submissions
	// required for a review case.
	MinimumParticipantCount = 1
)

// Noise levels for submission generation, expressed as the fraction of
// adjacent swaps applied to the base order.
const (
	NoiseNone   = 0.0
	NoiseLow    = 0.1
	NoiseMedium = 0.3
	NoiseHigh   = 0.6
)

// FilePool contains realistic changed-file paths used to build
// synthetic review orderings.
var FilePool = []string{
	"cmd/server/main.go",
	"internal/api/handler.go",
	"internal/api/handler_test.go",
	"internal/api/middleware.go",
	"internal/auth/token.go",
	"internal/auth/token_test.go",
	"internal/config/config.go",
	"internal/db/migrations/0042_add_index.sql",
	"internal/db/queries.go",
	"internal/db/queries_test.go",
	"internal/service/orders.go",
	"internal/service/orders_test.go",
	"internal/worker/pool.go",
	"pkg/client/client.go",
	"pkg/client/retry.go",
	"docs/api.md",
	"Makefile",
	"go.mod",
}
