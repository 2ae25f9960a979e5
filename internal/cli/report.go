package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const reportDateLayout = "Mon Jan 2, 2006"

type UserLookup interface {
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
}

type CycleReporter interface {
	CycleInfo(ctx context.Context, userID uint, now time.Time) (*services.CycleInfo, error)
	Prediction(ctx context.Context, userID uint, now time.Time) (services.CyclePrediction, error)
	Anomalies(ctx context.Context, userID uint, now time.Time) (services.CycleAnomalyReport, error)
}

// RunReport prints the current cycle position, the next-period prediction and any unusual
// cycle lengths for one account.
func RunReport(ctx context.Context, users UserLookup, cycles CycleReporter, email string, now time.Time, out io.Writer) error {
	normalized := services.NormalizeAuthEmail(email)
	if normalized == "" {
		return fmt.Errorf("invalid email address %q", email)
	}
	user, err := users.FindByNormalizedEmail(ctx, normalized)
	if err != nil {
		return fmt.Errorf("user %s not found: %w", normalized, err)
	}

	info, err := cycles.CycleInfo(ctx, user.ID, now)
	if errors.Is(err, services.ErrInsufficientData) {
		fmt.Fprintf(out, "No cycle data for %s yet: log a period start or set the last period date.\n", normalized)
		return nil
	}
	if err != nil {
		return err
	}
	prediction, err := cycles.Prediction(ctx, user.ID, now)
	if err != nil {
		return err
	}
	anomalies, err := cycles.Anomalies(ctx, user.ID, now)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Account\t%s\n", normalized)
	fmt.Fprintf(writer, "Cycle day\t%d (%s)\n", info.CurrentDay, info.Phase)
	fmt.Fprintf(writer, "Anchor\t%s (%s)\n", info.AnchorDate.Format(reportDateLayout), info.AnchorSource)
	if info.NextPeriodDate != nil && info.DaysUntilNext != nil {
		fmt.Fprintf(writer, "Next period\t%s (%+d days)\n", info.NextPeriodDate.Format(reportDateLayout), *info.DaysUntilNext)
	}
	if info.FertileWindowStart != nil && info.FertileWindowEnd != nil {
		fmt.Fprintf(writer, "Fertile window\t%s - %s\n", info.FertileWindowStart.Format(reportDateLayout), info.FertileWindowEnd.Format(reportDateLayout))
	}
	fmt.Fprintf(writer, "Predicted start\t%s (%s, %d%%)\n", prediction.PredictedDate.Format(reportDateLayout), prediction.ConfidenceLevel, prediction.ConfidencePercentage)
	fmt.Fprintf(writer, "Window\t%s - %s\n", prediction.PredictionWindowEarliest.Format(reportDateLayout), prediction.PredictionWindowLatest.Format(reportDateLayout))
	fmt.Fprintf(writer, "Cycle lengths\t%s\n", formatLengths(anomalies.Stats.Lengths))
	fmt.Fprintf(writer, "Variability\t%s (sd %.1f days)\n", anomalies.Stats.VariabilityConfidence, anomalies.Stats.StdDev)
	for _, anomaly := range anomalies.Anomalies {
		fmt.Fprintf(writer, "Unusual cycle\t%s: %d days (%.1f sd)\n", anomaly.StartDate.Format(reportDateLayout), anomaly.Length, anomaly.Deviation)
	}
	if anomalies.CurrentCycleLooksLong {
		fmt.Fprintf(writer, "Note\tcurrent cycle is running longer than usual\n")
	}
	return writer.Flush()
}

func formatLengths(lengths []int) string {
	if len(lengths) == 0 {
		return "none yet"
	}
	parts := make([]string, 0, len(lengths))
	for _, length := range lengths {
		parts = append(parts, fmt.Sprintf("%d", length))
	}
	return strings.Join(parts, ", ")
}
