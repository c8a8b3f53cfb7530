package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	outboxUsecase "github.com/parlorchat/parlor/internal/outbox/usecase"
)

// RunCleanOutboxEvents deletes processed outbox events older than the
// specified number of days. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanOutboxEvents(
	ctx context.Context,
	outboxUseCase outboxUsecase.UseCase,
	logger *slog.Logger,
	w io.Writer,
	days int,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning processed outbox events", slog.Int("days", days))

	count, err := outboxUseCase.CleanProcessedEvents(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to clean processed outbox events: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count": count,
			"days":  days,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(jsonBytes))
	} else {
		fmt.Fprintf(w, "Successfully deleted %d processed outbox event(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)

	return nil
}
