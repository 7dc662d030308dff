// Command automl runs the pipeline-search engine (CentralAI) over tabular
// binary-classification data: SINGLE mode generates folds from a single
// feature/label table and searches each fold in parallel; MULTI mode runs
// one search over a pre-split training/validation pair.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/davecheney/profile"
	flag "github.com/docker/docker/pkg/mflag"
	"github.com/sirupsen/logrus"
)

var (
	runProfile = flag.Bool([]string{"-profile"}, false, "cpu profile")
	seed       = flag.Int64([]string{"-seed"}, 0, "fold-generation RNG seed (SINGLE mode), 0 selects a nondeterministic seed; search and preprocessing RNGs are always clock-seeded")
	verbose    = flag.Bool([]string{"v", "-verbose"}, false, "log per-fold progress")
)

var log = logrus.New()

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	args := flag.Args()
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <settingsDir> <dataDir> {SINGLE|MULTI}\n\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *runProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	settingsDir, dataDir, mode := args[0], args[1], args[2]

	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, err := loadSettings(settingsDir)
	if err != nil {
		log.WithError(err).Fatal("loading settings")
	}

	switch mode {
	case "SINGLE":
		err = runSingle(cfg, dataDir, *seed)
	case "MULTI":
		err = runMulti(cfg, dataDir, *seed)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q, expected SINGLE or MULTI\n", mode)
		os.Exit(1)
	}

	if err != nil {
		log.WithError(err).Fatal("run failed")
	}
}
