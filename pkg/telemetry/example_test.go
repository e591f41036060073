package telemetry_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Example_sweepInstrumentation demonstrates wrapping a sweep and its daemon
// calls.
func Example_sweepInstrumentation() {
	tel := telemetry.NewNop()
	ctx := tel.WithContext(context.Background())

	ctx = telemetry.WithSweepContext(ctx, "run-123", true)

	err := telemetry.RecordDaemonOperation(ctx, "volume.rm", func(ctx context.Context) error {
		return errors.New("Error: No such volume: juno_data")
	})
	fmt.Println(err)

	telemetry.EndSweepContext(ctx, "completed", nil)
	// Output: Error: No such volume: juno_data
}

// Example_componentLogging demonstrates component loggers.
func Example_componentLogging() {
	logger := telemetry.NewNopLogger().NewComponentLogger("cleaner")
	logger.WithResource("container", "app1").Info("stopping container")
	fmt.Println("logged")
	// Output: logged
}
