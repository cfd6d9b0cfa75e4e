package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/hashsharing/config"
	"github.com/s0up4200/hashsharing/hashapi"
)

// maxStatusConcurrency bounds parallel checks for `status --all`
const maxStatusConcurrency = 4

var checkAll bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which member the credentials belong to",
	Long: `Query the status endpoint and print the member ID and name the configured
credentials authenticate as. With --all every known environment is checked.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&checkAll, "all", "a", false, "check every known environment")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if checkAll {
		statuses := checkEnvironments(ctx, hashapi.Environments())
		return renderStatuses(os.Stdout, cfg.Fetch.Output, statuses)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	logger.Info().Str("url", client.BaseURL()).Msg("Checking status")

	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	return renderStatuses(os.Stdout, cfg.Fetch.Output, []environmentStatus{{
		Environment: environmentLabel(cfg.HashSharing, client.BaseURL()),
		ESPID:       status.ESPID,
		ESPName:     status.ESPName,
	}})
}

// checkEnvironments queries the status endpoint of each environment
// concurrently. Failures are reported per row rather than aborting the rest.
func checkEnvironments(ctx context.Context, envs []hashapi.Environment) []environmentStatus {
	results := make([]environmentStatus, len(envs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStatusConcurrency)

	for i, env := range envs {
		g.Go(func() error {
			results[i] = environmentStatus{Environment: string(env)}

			client, err := hashapi.NewClientForEnvironment(env,
				cfg.HashSharing.Username, cfg.HashSharing.Password, logger, clientOptions()...)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			status, err := client.Status(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("environment", string(env)).Msg("Status check failed")
				results[i].Error = err.Error()
				return nil
			}

			results[i].ESPID = status.ESPID
			results[i].ESPName = status.ESPName
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// environmentLabel names the target of a single status check. A base_url
// override is shown as the URL it points at.
func environmentLabel(hs config.HashSharingConfig, baseURL string) string {
	if hs.BaseURL != "" {
		return "custom (" + baseURL + ")"
	}
	return hs.Environment
}
