package main

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/config"
	"github.com/nctk/crossval/model"
	"github.com/nctk/crossval/sample"
)

var (
	cfgPathFlag string
	dataFlag    string
	outputsFlag int
	samplesFlag int
	ratioFlag   float64
	repsFlag    int
	seedFlag    int64
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "train an ensemble on a config file or a generated dataset",
		RunE:  runTrain,
	}
	flags := cmd.Flags()
	flags.StringVarP(&cfgPathFlag, "config", "c", "", "build config path (YAML)")
	flags.StringVarP(&dataFlag, "data", "d", "", "CSV dataset path; last --outputs columns are ideals")
	flags.IntVarP(&outputsFlag, "outputs", "o", 1, "ideal vector width of the CSV dataset")
	flags.IntVarP(&samplesFlag, "samples", "n", 200, "generated dataset size")
	flags.Float64VarP(&ratioFlag, "ratio", "r", 0.2, "fold-size ratio")
	flags.IntVar(&repsFlag, "repetitions", 1, "cross-validation repetitions")
	flags.Int64Var(&seedFlag, "seed", 1, "random seed")
	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	zlog, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer zlog.Sync()
	log := zlog.Sugar()

	policy := crossval.Policy{FoldRatio: ratioFlag, Repetitions: repsFlag}
	kind := sample.Continuous
	configs := []crossval.ModelConfig{
		model.Regression{Termer: model.PolyTermer{Order: 3}},
		model.LMS{Epochs: 200},
	}
	seed := seedFlag

	if cfgPathFlag != "" {
		cfg, err := config.Load(cfgPathFlag)
		if err != nil {
			return err
		}
		if kind, err = cfg.OutputKind(); err != nil {
			return err
		}
		if configs, err = cfg.ModelConfigs(); err != nil {
			return err
		}
		policy = cfg.Policy()
		if cfg.Seed != 0 {
			seed = cfg.Seed
		}
	}

	rnd := rand.New(rand.NewSource(seed))
	var bundle *sample.Bundle
	if dataFlag != "" {
		bundle, err = loadCSV(dataFlag, outputsFlag)
	} else {
		bundle, err = generate(kind, samplesFlag, rnd)
	}
	if err != nil {
		return err
	}

	settings := &crossval.Settings{Rand: rnd, Logger: log}
	cluster, err := crossval.BuildEnsemble(policy, kind, configs, bundle, settings)
	if err != nil {
		return err
	}

	log.Infof("members: %d", cluster.Len())
	log.Infof("weights: %v", cluster.Weights())
	test := cluster.TestStats()
	log.Infof("held-out precision error: %.6f over %d samples", test.Precision, test.Samples)
	if kind.Binary() {
		log.Infof("held-out confusions: %d misrecognized, %d unrecognized",
			test.Confusion.Misrecognized, test.Confusion.Unrecognized)
	}
	return nil
}

// loadCSV reads a headerless numeric CSV file; the trailing outputs columns
// form the ideal vector, the rest the input vector.
func loadCSV(path string, outputs int) (*sample.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	inputs := make([][]float64, len(rows))
	ideals := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) <= outputs {
			return nil, errors.Errorf("row %d has %d columns, need more than %d", i, len(row), outputs)
		}
		vals := make([]float64, len(row))
		for j, cell := range row {
			if vals[j], err = strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", i, j)
			}
		}
		split := len(vals) - outputs
		inputs[i] = vals[:split]
		ideals[i] = vals[split:]
	}
	return sample.NewBundle(inputs, ideals)
}

// generate builds a synthetic dataset matching the output kind: a noisy
// sine for continuous outputs, a noisy linear separation for probabilities,
// and a three-class angular split for distributions.
func generate(kind sample.Kind, n int, rnd *rand.Rand) (*sample.Bundle, error) {
	inputs := make([][]float64, n)
	ideals := make([][]float64, n)
	for i := 0; i < n; i++ {
		x := rnd.Float64()*2 - 1
		y := rnd.Float64()*2 - 1
		inputs[i] = []float64{x, y}
		switch kind {
		case sample.Continuous:
			ideals[i] = []float64{math.Sin(3*x) + 0.5*y + rnd.NormFloat64()*0.05}
		case sample.SingleProbability:
			v := 0.0
			if x+y+rnd.NormFloat64()*0.1 > 0 {
				v = 1
			}
			ideals[i] = []float64{v}
		case sample.Distribution:
			hot := make([]float64, 3)
			angle := math.Atan2(y, x) + math.Pi
			hot[int(angle/(2*math.Pi/3))%3] = 1
			ideals[i] = hot
		}
	}
	return sample.NewBundle(inputs, ideals)
}
