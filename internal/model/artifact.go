package model

import (
	"encoding/json"
	"os"

	apperrors "github.com/rotem-industrial/pump-pdm/internal/errors"
)

// Artifacts bundles the two files the predictor loads at startup.
type Artifacts struct {
	Scaler     *Scaler
	Classifier *Classifier
}

// Load reads the scaler and classifier JSON files from disk. A missing or
// unparsable file returns an ArtifactError; the caller decides whether
// that is fatal (STRICT_ARTIFACT_CHECK) or means "run in UNKNOWN mode".
func Load(scalerPath, classifierPath string) (*Artifacts, error) {
	scaler, err := loadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	classifier, err := loadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Scaler: scaler, Classifier: classifier}, nil
}

func loadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ArtifactError("read scaler artifact", err)
	}
	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.ArtifactError("decode scaler artifact", err)
	}
	return &s, nil
}

func loadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ArtifactError("read classifier artifact", err)
	}
	var c Classifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.ArtifactError("decode classifier artifact", err)
	}
	return &c, nil
}

// Save writes the artifacts to disk as pretty-printed JSON, creating the
// parent directory if needed. Used by cmd/train.
func Save(scalerPath string, scaler *Scaler, classifierPath string, classifier *Classifier) error {
	if err := writeJSON(scalerPath, scaler); err != nil {
		return err
	}
	return writeJSON(classifierPath, classifier)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.ArtifactError("encode artifact", err)
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return apperrors.ArtifactError("create artifact directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.ArtifactError("write artifact", err)
	}
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
