package config

import (
	"os"
	"regexp"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// scenarioFile is the on-disk layout of a scenario file:
//
//	defaults:
//	  nodes: 10
//	  records: 100
//	scenarios:
//	  - name: mirror
//	    mode: mirror
//	  - name: random
//	    mode: random
//	    seed: ${SEED}
type scenarioFile struct {
	Defaults  yaml.Node   `yaml:"defaults"`
	Scenarios []yaml.Node `yaml:"scenarios"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// LoadScenarios reads a YAML scenario file. ${VAR} placeholders are
// replaced from the environment first. Each scenario starts from base
// overlaid with the file's defaults.
func LoadScenarios(path string, base Scenario, logger *zap.Logger) ([]Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario file")
	}

	b = envPlaceholder.ReplaceAllFunc(b, func(m []byte) []byte {
		k := string(envPlaceholder.FindSubmatch(m)[1])
		val := os.Getenv(k)
		if val == "" {
			logger.Warn("env variable is empty during scenario expansion",
				zap.String("file", path),
				zap.String("var", k))
		}
		return []byte(val)
	})

	var f scenarioFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrInvalid)
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.Wrapf(ErrInvalid, "%s: no scenarios defined", path)
	}

	defaults := base
	if !f.Defaults.IsZero() {
		if err := f.Defaults.Decode(&defaults); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s: defaults", path), ErrInvalid)
		}
	}

	out := make([]Scenario, 0, len(f.Scenarios))
	for i := range f.Scenarios {
		s := defaults
		if err := f.Scenarios[i].Decode(&s); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s: scenario %d", path, i), ErrInvalid)
		}
		if err := s.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s: scenario %d", path, i)
		}
		out = append(out, s)
	}
	return out, nil
}
