package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/hashsharing/hashapi"
)

// Output formats accepted by --output
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

// environmentStatus is one row of `status --all`
type environmentStatus struct {
	Environment string `json:"environment" yaml:"environment"`
	ESPID       int64  `json:"espId,omitempty" yaml:"espId,omitempty"`
	ESPName     string `json:"espName,omitempty" yaml:"espName,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// encode writes v as JSON or YAML. It reports false for the table format.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode as JSON: %w", err)
		}
		return true, nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		if err := encoder.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode as YAML: %w", err)
		}
		return true, nil
	case OutputFormatTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format: %s", format)
	}
}

func renderStatuses(w io.Writer, format string, statuses []environmentStatus) error {
	if done, err := encode(w, format, statuses); done {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Environment", "ESP ID", "ESP Name", "Error")

	for _, s := range statuses {
		id := ""
		if s.Error == "" {
			id = strconv.FormatInt(s.ESPID, 10)
		}
		_ = table.Append([]string{s.Environment, id, s.ESPName, s.Error})
	}

	return table.Render()
}

func renderUpdates(w io.Writer, format string, updates []hashapi.EntryUpdate) error {
	if done, err := encode(w, format, updates); done {
		return err
	}

	if len(updates) == 0 {
		_, err := io.WriteString(w, "No updates found\n")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Member", "Type", "Deleted", "Classification", "Fingerprints")

	for _, u := range updates {
		_ = table.Append([]string{
			u.ID,
			strconv.FormatInt(u.MemberID, 10),
			u.EntryType.String(),
			strconv.FormatBool(u.Deleted),
			u.ClassificationOrEmpty(),
			formatFingerprints(u.Fingerprints),
		})
	}

	return table.Render()
}

// formatFingerprints lists algorithm names with truncated values
func formatFingerprints(fps map[string]string) string {
	parts := make([]string, 0, len(fps))
	for _, alg := range slices.Sorted(maps.Keys(fps)) {
		value := fps[alg]
		if len(value) > 16 {
			value = value[:16] + "…"
		}
		parts = append(parts, alg+"="+value)
	}
	return strings.Join(parts, " ")
}

type environmentInfo struct {
	Name    string `json:"name" yaml:"name"`
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
	Test    bool   `json:"test" yaml:"test"`
}

func renderEnvironments(w io.Writer) error {
	envs := hashapi.Environments()
	infos := make([]environmentInfo, 0, len(envs))
	for _, env := range envs {
		baseURL, err := env.BaseURL()
		if err != nil {
			return err
		}
		infos = append(infos, environmentInfo{Name: string(env), BaseURL: baseURL, Test: env.IsTest()})
	}

	if done, err := encode(w, outputFmt, infos); done {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Base URL", "Test")
	for _, info := range infos {
		_ = table.Append([]string{info.Name, info.BaseURL, strconv.FormatBool(info.Test)})
	}

	return table.Render()
}
