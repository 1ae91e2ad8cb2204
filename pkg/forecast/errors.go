package forecast

import "fmt"

// ValidationError reports client input that cannot be forecast.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ArtifactLoadError reports a model or scaler artifact that could not be
// loaded or is incompatible with the pipeline. It is fatal at startup.
type ArtifactLoadError struct {
	Artifact string // "model" or "scaler"
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s artifact: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s artifact %q: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}
