package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/wlattner/automl/automl"
	"github.com/wlattner/automl/data"
	"github.com/wlattner/automl/fold"
)

// writeFoldArtifacts writes one fold's output: the effective (preprocessed)
// training/validation tables, the resolved pipeline description, and the
// fold's confusion-matrix performance report.
func writeFoldArtifacts(dataDir string, idx int, f fold.Fold, res automl.Result) error {
	dir := filepath.Join(dataDir, fmt.Sprintf("fold_%d", idx))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating fold directory %q", dir)
	}

	if res.Model != nil {
		if pkg := res.Model.PreprocessedTrainingPackage(); pkg != nil {
			if err := writePackageCSVs(dir, "TDS.csv", "TLD.csv", pkg); err != nil {
				return err
			}
		}
	}
	val := f.Val
	if res.Model != nil {
		for _, a := range res.Model.FeatureSpaceActions() {
			next, err := a.Run(val)
			if err != nil {
				return errors.Wrap(err, "preprocessing validation package")
			}
			val = next
		}
	}
	if err := writePackageCSVs(dir, "VDS.csv", "VLD.csv", val); err != nil {
		return err
	}

	if err := writePipelineInfo(filepath.Join(dir, "pipeline_info.txt"), res); err != nil {
		return err
	}

	return writePerformanceInfo(filepath.Join(dir, "performance_info.csv"), res)
}

func writePackageCSVs(dir, fdbName, ldbName string, pkg *data.Package) error {
	if err := writeTable(filepath.Join(dir, fdbName), pkg.FDB); err != nil {
		return err
	}
	return writeTable(filepath.Join(dir, ldbName), pkg.LDB)
}

func writeTable(path string, t *data.TabularData) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer f.Close()
	return data.WriteCSV(f, t)
}

// writePipelineInfo writes one line per action with its resolved
// parameters, then the ordered action-name list.
func writePipelineInfo(path string, res automl.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer f.Close()

	if res.Model != nil {
		for _, a := range res.Model.Actions() {
			fmt.Fprintf(f, "%s %v\n", a.ID(), a.Parameters())
		}
	}
	fmt.Fprintf(f, "pipeline: %v\n", res.Creature)
	return nil
}

// writePerformanceInfo writes TP/TN/FP/FN and the derived score family for
// a single fold's confusion matrix.
func writePerformanceInfo(path string, res automl.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if res.Confusion == nil {
		return w.Write([]string{"validation_roc_distance", strconv.FormatFloat(res.Validation, 'f', -1, 64)})
	}

	if err := w.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	rows := [][2]string{
		{"tp", strconv.Itoa(res.Confusion.At(1, 1))},
		{"tn", strconv.Itoa(res.Confusion.At(0, 0))},
		{"fp", strconv.Itoa(res.Confusion.At(1, 0))},
		{"fn", strconv.Itoa(res.Confusion.At(0, 1))},
		{"roc_distance", strconv.FormatFloat(res.Confusion.ROCDistanceScore(), 'f', -1, 64)},
		{"accuracy", strconv.FormatFloat(res.Confusion.AccuracyScore(), 'f', -1, 64)},
		{"sensitivity", strconv.FormatFloat(res.Confusion.SensitivityScore(), 'f', -1, 64)},
		{"specificity", strconv.FormatFloat(res.Confusion.SpecificityScore(), 'f', -1, 64)},
		{"precision", strconv.FormatFloat(res.Confusion.PrecisionScore(), 'f', -1, 64)},
		{"mcc", strconv.FormatFloat(res.Confusion.MCCScore(), 'f', -1, 64)},
	}
	for _, row := range rows {
		if err := w.Write(row[:]); err != nil {
			return err
		}
	}
	return nil
}

// writeOverallReport writes centralAI_overall_performance_info.csv with one
// row per fold: its index, its confusion-matrix ROC distance and its
// validation score. The folds' confusion-matrix cells are not summed.
func writeOverallReport(dataDir string, results []foldResult) error {
	path := filepath.Join(dataDir, "centralAI_overall_performance_info.csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"fold", "roc_distance", "validation"}); err != nil {
		return err
	}
	for _, r := range results {
		score := 0.0
		if r.res.Confusion != nil {
			score = r.res.Confusion.ROCDistanceScore()
		}
		if err := w.Write([]string{
			strconv.Itoa(r.index),
			strconv.FormatFloat(score, 'f', -1, 64),
			strconv.FormatFloat(r.res.Validation, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	return nil
}
