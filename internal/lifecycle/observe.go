package lifecycle

import (
	"log/slog"
)

// LogTransitions returns an observer that logs every transition. The
// failure cause is logged here and nowhere shown to the user.
func LogTransitions(logger *slog.Logger) func(Transition) {
	return func(t Transition) {
		attrs := []any{
			"from", t.From.String(),
			"to", t.To.String(),
			"mode", string(t.State.Mode),
			"submission", t.State.SubmissionID,
		}
		if t.Submission != nil && t.To != Loading {
			attrs = append(attrs, "elapsed_ms", t.At.Sub(t.Submission.Started).Milliseconds())
		}

		switch t.To {
		case Failed:
			attrs = append(attrs, "error", t.State.Cause)
			logger.Warn("analysis failed", attrs...)
		case Succeeded:
			if t.State.Response != nil {
				attrs = append(attrs, "response_mode", t.State.Response.Mode)
			}
			logger.Info("analysis succeeded", attrs...)
		default:
			logger.Debug("analysis state changed", attrs...)
		}
	}
}
