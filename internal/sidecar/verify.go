package sidecar

import (
	"fmt"

	"modsuite/internal/digest"
	"modsuite/internal/services"
)

// Verify re-hashes the artifact described by path (an artifact or one of its
// sidecars) and compares it with the recorded output digest and size.
func Verify(path string) (Verification, error) {
	artifact := ArtifactPath(path)
	located, ok := Locate(path)
	if !ok {
		return Verification{}, services.Wrap(services.ErrIOFailure, "sidecar", "verify",
			fmt.Sprintf("no sidecar found for %s", artifact), nil)
	}
	sc, err := Read(located)
	if err != nil {
		return Verification{}, err
	}
	sum, size, err := digest.File(artifact)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Artifact:       artifact,
		Sidecar:        located,
		ExpectedSHA256: sc.Record.Output.FileSHA256,
		ActualSHA256:   sum,
		ExpectedSize:   sc.Record.Output.FileSize,
		ActualSize:     size,
	}, nil
}
