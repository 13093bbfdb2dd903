// Command riceyield cleans quarterly rice-yield workbooks, fits a seasonal
// ARIMA model and writes forecasts, plots and a YAML report.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "riceyield:", err)
		stop()
		os.Exit(1)
	}
}
