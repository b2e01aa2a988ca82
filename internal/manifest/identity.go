package manifest

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"modsuite/internal/logging"
)

// IDCapability reports which identifier generator this process can use.
type IDCapability struct {
	HasTimeOrderedIDs bool
}

// DetectIDCapability probes the time-ordered generator once and logs the
// outcome. Callers pass the result to WithIDCapability.
func DetectIDCapability(logger *slog.Logger) IDCapability {
	logger = logging.NewComponentLogger(logger, "manifest")
	if _, err := uuid.NewV7(); err != nil {
		logger.Warn("time-ordered identifiers unavailable; manifest ids will be random",
			logging.String(logging.FieldEventType, "id_capability"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "ams_id values will not sort by creation time"),
		)
		return IDCapability{}
	}
	logger.Debug("time-ordered identifiers available",
		logging.String(logging.FieldEventType, "id_capability"),
		logging.Bool("has_time_ordered_ids", true),
	)
	return IDCapability{HasTimeOrderedIDs: true}
}

// IDGenerator returns a fresh unique identifier.
type IDGenerator func() (string, error)

// GeneratorFor returns the identifier generator matching the capability.
func GeneratorFor(capability IDCapability) IDGenerator {
	if capability.HasTimeOrderedIDs {
		return timeOrderedID
	}
	return randomID
}

func timeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate time-ordered id: %w", err)
	}
	return id.String(), nil
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate random id: %w", err)
	}
	return id.String(), nil
}
