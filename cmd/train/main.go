// Command train fits the classifier/scaler artifacts offline from a
// labeled CSV of historical feature rows, the Go equivalent of
// train_and_save.py — a separate command from the online engine, never
// invoked from the ingest loop.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/internal/model"
	"github.com/rotem-industrial/pump-pdm/internal/train"
)

func main() {
	var inputPath, scalerPath, classifierPath string
	var epochs int
	var learningRate float64

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the classifier/scaler artifacts from a labeled feature CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(inputPath, scalerPath, classifierPath, epochs, learningRate)
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "labeled training CSV (vib_rms,vib_crest,vib_kurtosis,current,pressure,cavitation_index,temp,temp_delta,label)")
	cmd.Flags().StringVar(&scalerPath, "scaler-out", "models/scaler_v1.json", "output path for the scaler artifact")
	cmd.Flags().StringVar(&classifierPath, "classifier-out", "models/classifier_v1.json", "output path for the classifier artifact")
	cmd.Flags().IntVar(&epochs, "epochs", 500, "gradient descent epochs")
	cmd.Flags().Float64Var(&learningRate, "learning-rate", 0.1, "gradient descent learning rate")
	cmd.MarkFlagRequired("input")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inputPath, scalerPath, classifierPath string, epochs int, learningRate float64) error {
	examples, err := loadExamples(inputPath)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}

	opts := train.DefaultOptions()
	if epochs > 0 {
		opts.Epochs = epochs
	}
	if learningRate > 0 {
		opts.LearningRate = learningRate
	}

	scaler, classifier, err := train.Fit(examples, opts)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	if err := model.Save(scalerPath, scaler, classifierPath, classifier); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}

	fmt.Printf("trained %d-class classifier over %d examples -> %s, %s\n",
		len(classifier.Classes), len(examples), scalerPath, classifierPath)
	return nil
}

// loadExamples reads a CSV whose header matches telemetry.FeatureNames
// followed by a trailing "label" column.
func loadExamples(path string) ([]train.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("training csv must have a header and at least one row")
	}

	header := rows[0]
	labelCol := -1
	featureCols := make([]int, 0, len(telemetry.FeatureNames))
	for i, col := range header {
		if col == "label" {
			labelCol = i
			continue
		}
		featureCols = append(featureCols, i)
	}
	if labelCol == -1 {
		return nil, fmt.Errorf("training csv missing a \"label\" column")
	}

	examples := make([]train.Example, 0, len(rows)-1)
	for _, row := range rows[1:] {
		features := make([]float64, len(featureCols))
		for i, col := range featureCols {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, fmt.Errorf("parse feature column %d: %w", col, err)
			}
			features[i] = v
		}
		examples = append(examples, train.Example{Features: features, Label: row[labelCol]})
	}
	return examples, nil
}
