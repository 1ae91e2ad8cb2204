package forecast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/HatiCode/rnncast/pkg/models"
	"github.com/HatiCode/rnncast/pkg/scaler"
)

// Artifacts bundles the externally trained model and scaler. It is built once
// at startup and never mutated, so it can be shared by all requests.
type Artifacts struct {
	Model  models.Model
	Scaler scaler.Scaler

	// Fingerprint is a hex SHA-256 identifying this artifact pair.
	Fingerprint string
}

// LoadArtifacts reads a network artifact and a scaler artifact from disk.
// Any failure is returned as *ArtifactLoadError.
func LoadArtifacts(modelPath, scalerPath string) (*Artifacts, error) {
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "model", Path: modelPath, Err: err}
	}
	net, err := models.ParseNetwork(modelData)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "model", Path: modelPath, Err: err}
	}

	return withScaler(net, modelData, scalerPath)
}

// LoadRemoteArtifacts pairs a remotely served model with a scaler read from
// disk. The fingerprint covers the model name and the scaler file.
func LoadRemoteArtifacts(model models.Model, scalerPath string) (*Artifacts, error) {
	return withScaler(model, []byte(model.Info().Backend+":"+model.Name()), scalerPath)
}

// NewArtifacts validates an in-memory model and scaler pair. It is meant for
// tests and embedding; fingerprint may be empty.
func NewArtifacts(model models.Model, s scaler.Scaler, fingerprint string) (*Artifacts, error) {
	a := &Artifacts{Model: model, Scaler: s, Fingerprint: fingerprint}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func withScaler(model models.Model, modelID []byte, scalerPath string) (*Artifacts, error) {
	scalerData, err := os.ReadFile(scalerPath)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "scaler", Path: scalerPath, Err: err}
	}
	s, err := scaler.Parse(scalerData)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "scaler", Path: scalerPath, Err: err}
	}

	h := sha256.New()
	h.Write(modelID)
	h.Write([]byte{0})
	h.Write(scalerData)

	return NewArtifacts(model, s, hex.EncodeToString(h.Sum(nil)))
}

func (a *Artifacts) validate() error {
	info := a.Model.Info()
	if info.Window != 0 && info.Window != WindowSize {
		return &ArtifactLoadError{
			Artifact: "model",
			Err:      fmt.Errorf("model expects %d timesteps, pipeline provides %d", info.Window, WindowSize),
		}
	}
	if info.Features != 1 {
		return &ArtifactLoadError{
			Artifact: "model",
			Err:      fmt.Errorf("model expects %d features per timestep, pipeline provides 1", info.Features),
		}
	}
	if a.Scaler.Features() != 1 {
		return &ArtifactLoadError{
			Artifact: "scaler",
			Err:      fmt.Errorf("scaler fitted on %d features, pipeline provides 1", a.Scaler.Features()),
		}
	}
	return nil
}
