package main

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wlattner/automl/automl"
	"github.com/wlattner/automl/config"
	"github.com/wlattner/automl/data"
	"github.com/wlattner/automl/fold"
)

// foldResult pairs a fold's index with its search outcome, for the overall
// performance report.
type foldResult struct {
	index int
	res   automl.Result
}

// runSingle loads FDB.csv+LDB.csv from dataDir, generates folds, and
// searches each fold in parallel, one worker per fold, then writes one row
// per fold to the overall performance report.
func runSingle(cfg config.RunConfig, dataDir string, seed int64) error {
	fdb, ldb, err := loadFeaturesAndLabels(dataDir)
	if err != nil {
		return err
	}

	labelName := ldb.Header.Names[0]
	pkg, err := data.NewPackage(fdb, ldb, labelName)
	if err != nil {
		return errors.Wrap(err, "building data package")
	}

	foldCount, _ := cfg.Int("CentralAi/foldCount", 5)
	splitPercentage, _ := cfg.Int("CentralAi/splitPercentage", 20)

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := fold.NewGenerator(seed)

	folds, err := gen.Generate(pkg, splitPercentage, foldCount)
	if err != nil {
		return errors.Wrap(err, "generating folds")
	}

	results := make([]foldResult, len(folds))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	for i, f := range folds {
		i, f := i, f
		g.Go(func() error {
			log.WithField("fold", i).Debug("starting fold search")

			s := automl.New(cfg, len(fdb.Header.Names))
			res, err := s.Run(f.Train, f.Val)
			if err != nil {
				return errors.Wrapf(err, "fold %d", i)
			}

			if err := writeFoldArtifacts(dataDir, i, f, res); err != nil {
				return errors.Wrapf(err, "fold %d artifacts", i)
			}

			results[i] = foldResult{index: i, res: res}
			log.WithField("fold", i).WithField("validation", res.Validation).Info("fold search complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return writeOverallReport(dataDir, results)
}

// runMulti loads a pre-split TDS/TLD (training) and VDS/VLD (validation)
// pair from dataDir and runs a single search.
func runMulti(cfg config.RunConfig, dataDir string, seed int64) error {
	train, err := loadSplitPackage(dataDir, "TDS.csv", "TLD.csv")
	if err != nil {
		return err
	}
	val, err := loadSplitPackage(dataDir, "VDS.csv", "VLD.csv")
	if err != nil {
		return err
	}

	_ = seed // the search's internal RNGs are seeded nondeterministically; MULTI runs once

	s := automl.New(cfg, len(train.FDB.Header.Names))
	res, err := s.Run(train, val)
	if err != nil {
		return errors.Wrap(err, "search")
	}

	log.WithField("validation", res.Validation).Info("search complete")
	return writeFoldArtifacts(dataDir, 0, fold.Fold{Train: train, Val: val}, res)
}

func loadFeaturesAndLabels(dataDir string) (fdbTable, ldbTable *data.TabularData, err error) {
	fdbTable, err = loadTable(dataDir, "FDB.csv")
	if err != nil {
		return nil, nil, err
	}
	ldbTable, err = loadTable(dataDir, "LDB.csv")
	if err != nil {
		return nil, nil, err
	}
	return fdbTable, ldbTable, nil
}

func loadSplitPackage(dataDir, fdbName, ldbName string) (*data.Package, error) {
	fdb, err := loadTable(dataDir, fdbName)
	if err != nil {
		return nil, err
	}
	ldb, err := loadTable(dataDir, ldbName)
	if err != nil {
		return nil, err
	}
	return data.NewPackage(fdb, ldb, ldb.Header.Names[0])
}

func loadTable(dataDir, name string) (*data.TabularData, error) {
	path := filepath.Join(dataDir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()

	t, err := data.LoadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return t, nil
}
