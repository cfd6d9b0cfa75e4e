package hashapi

import (
	"fmt"
	"slices"
	"strings"
)

// Environment selects the backend deployment and content category
type Environment string

const (
	EnvIndustry         Environment = "industry"
	EnvNGO              Environment = "ngo"
	EnvExploitative     Environment = "exploitative"
	EnvTestIndustry     Environment = "test_industry"
	EnvTestNGO          Environment = "test_ngo"
	EnvTestExploitative Environment = "test_exploitative"
)

// DefaultEnvironment is used when none is configured
const DefaultEnvironment = EnvTestIndustry

// Production tracks currently point at the same hosts as the test tracks until
// production credentials are issued for them.
var environmentURLs = map[Environment]string{
	EnvIndustry:         "https://exttest.cybertip.org/hashsharing",
	EnvNGO:              "https://hashsharing-test.ncmec.org/npo",
	EnvExploitative:     "https://hashsharing-test.ncmec.org/exploitative",
	EnvTestIndustry:     "https://exttest.cybertip.org/hashsharing",
	EnvTestNGO:          "https://hashsharing-test.ncmec.org/npo",
	EnvTestExploitative: "https://hashsharing-test.ncmec.org/exploitative",
}

// ParseEnvironment resolves an environment name, case-insensitively
func ParseEnvironment(name string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := environmentURLs[env]; !ok {
		return "", fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, name)
	}
	return env, nil
}

// BaseURL returns the service root for the environment
func (e Environment) BaseURL() (string, error) {
	u, ok := environmentURLs[e]
	if !ok {
		return "", fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, string(e))
	}
	return u, nil
}

// IsTest reports whether the environment is a test track
func (e Environment) IsTest() bool {
	return strings.HasPrefix(string(e), "test_")
}

// Environments lists every known environment in a stable order
func Environments() []Environment {
	envs := make([]Environment, 0, len(environmentURLs))
	for env := range environmentURLs {
		envs = append(envs, env)
	}
	slices.Sort(envs)
	return envs
}
