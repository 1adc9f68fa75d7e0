package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/experiment"
	"github.com/san-kum/segsim/internal/metrics"
	"github.com/san-kum/segsim/internal/schelling"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single entry in a scenario. Config holds a partial config
// that is overlaid on the step's preset, the scenario preset or the defaults.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Repeat int       `yaml:"repeat"`
	Save   bool      `yaml:"save"`
	Config yaml.Node `yaml:"config"`
}

// StepResult is one finished run of a scenario step.
type StepResult struct {
	Step   string
	Config config.Config
	Result *schelling.Result
	RunID  string
}

// Saver persists a finished run and returns its ID.
type Saver interface {
	Save(cfg *config.Config, result *schelling.Result) (string, error)
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// StepConfig resolves the configuration of step i.
func (s *Scenario) StepConfig(i int) (*config.Config, error) {
	step := s.Steps[i]

	cfg := config.DefaultConfig()
	for _, name := range []string{s.Preset, step.Preset} {
		if name == "" {
			continue
		}
		p := config.GetPreset(name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cfg = p
	}

	if !step.Config.IsZero() {
		if err := step.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	// batch runs never pause between moves
	cfg.Delay = 0
	return cfg, nil
}

// RunScenario executes all steps in order. Each step runs Repeat times (at
// least once) with seeds counting up from its configured seed. Runs of steps
// marked Save are stored with saver when it is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, saver Saver, log logrus.FieldLogger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}

		base, err := scenario.StepConfig(i)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		for r := 0; r < max(1, step.Repeat); r++ {
			cfg := *base
			cfg.Seed = base.Seed + int64(r)

			exp := experiment.New(&cfg, log)
			if err := exp.Setup(metrics.Default()); err != nil {
				return results, fmt.Errorf("step %d (%s) setup: %w", i+1, name, err)
			}

			result, err := exp.Run(ctx)
			if err != nil {
				return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
			}

			sr := StepResult{Step: name, Config: cfg, Result: result}
			if step.Save && saver != nil {
				if sr.RunID, err = saver.Save(&cfg, result); err != nil {
					return results, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
				}
			}
			results = append(results, sr)

			if log != nil {
				log.WithFields(logrus.Fields{
					"step":   name,
					"seed":   cfg.Seed,
					"status": result.Status,
				}).Info("scenario run done")
			}
		}
	}

	return results, nil
}
