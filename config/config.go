// Package config loads build policies and member model configurations from
// YAML files.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nctk/crossval"
	"github.com/nctk/crossval/model"
	"github.com/nctk/crossval/sample"
)

// Member describes one member model configuration.
type Member struct {
	// Type is one of "regression", "lms", "logistic", "softmax".
	Type string `mapstructure:"type"`
	// Order selects a polynomial term expansion; 0 or 1 means linear.
	Order    int     `mapstructure:"order"`
	Rate     float64 `mapstructure:"rate"`
	Epochs   int     `mapstructure:"epochs"`
	Attempts int     `mapstructure:"attempts"`
}

// CV mirrors crossval.Policy in file form.
type CV struct {
	FoldRatio   float64 `mapstructure:"foldRatio"`
	Folds       int     `mapstructure:"folds"`
	Repetitions int     `mapstructure:"repetitions"`
	Threshold   float64 `mapstructure:"threshold"`
}

// Config is one build description.
type Config struct {
	Kind    string   `mapstructure:"kind"`
	Seed    int64    `mapstructure:"seed"`
	CV      CV       `mapstructure:"cv"`
	Members []Member `mapstructure:"members"`
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("crossval")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	return &cfg, nil
}

// OutputKind maps the kind string onto a sample.Kind.
func (c *Config) OutputKind() (sample.Kind, error) {
	switch strings.ToLower(c.Kind) {
	case "", "continuous":
		return sample.Continuous, nil
	case "singleprobability", "probability":
		return sample.SingleProbability, nil
	case "distribution":
		return sample.Distribution, nil
	}
	return 0, errors.Errorf("config: unknown output kind %q", c.Kind)
}

// Policy converts the file policy.
func (c *Config) Policy() crossval.Policy {
	return crossval.Policy{
		FoldRatio:   c.CV.FoldRatio,
		Folds:       c.CV.Folds,
		Repetitions: c.CV.Repetitions,
		Threshold:   c.CV.Threshold,
	}
}

// ModelConfigs instantiates the member configurations.
func (c *Config) ModelConfigs() ([]crossval.ModelConfig, error) {
	if len(c.Members) == 0 {
		return nil, errors.New("config: no members")
	}
	configs := make([]crossval.ModelConfig, 0, len(c.Members))
	for i, m := range c.Members {
		var termer model.Termer
		if m.Order > 1 {
			termer = model.PolyTermer{Order: m.Order}
		}
		switch strings.ToLower(m.Type) {
		case "regression":
			configs = append(configs, model.Regression{Termer: termer})
		case "lms":
			configs = append(configs, model.LMS{Termer: termer, LearningRate: m.Rate, Epochs: m.Epochs, Attempts: m.Attempts})
		case "logistic":
			configs = append(configs, model.Logistic{Termer: termer, LearningRate: m.Rate, Epochs: m.Epochs, Attempts: m.Attempts})
		case "softmax":
			configs = append(configs, model.Softmax{Termer: termer, LearningRate: m.Rate, Epochs: m.Epochs, Attempts: m.Attempts})
		default:
			return nil, errors.Errorf("config: member %d has unknown type %q", i, m.Type)
		}
	}
	return configs, nil
}
