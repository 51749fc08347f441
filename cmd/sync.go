package cmd

import (
	"context"
	"fmt"

	walletrender "github.com/bnema/tokenwallet/internal/adapters/render/wallet"
	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a cached collection against the server snapshot",
	}

	cmd.AddCommand(
		newSyncPlanCmd(app),
		newSyncApplyCmd(app),
	)

	return cmd
}

func newSyncPlanCmd(app *app) *cobra.Command {
	var (
		fromDir string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "plan <class>",
		Short: "Show how the cache differs from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class := domain.CollectionClass(args[0])
			plan, err := fetchPlan(cmd, app, class, fromDir, asJSON)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), conflictsJSON(plan.Conflicts))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), walletrender.Conflicts(class, plan.Conflicts))
			return err
		},
	}

	cmd.Flags().StringVar(&fromDir, "from", "", "Read <class>.json from this directory instead of sync.url")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newSyncApplyCmd(app *app) *cobra.Command {
	var (
		fromDir     string
		rawStrategy string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "apply <class>",
		Short: "Resolve the differences and replace the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := domain.ParseStrategy(rawStrategy)
			if err != nil {
				return err
			}

			class := domain.CollectionClass(args[0])
			plan, err := fetchPlan(cmd, app, class, fromDir, asJSON)
			if err != nil {
				return err
			}

			service, err := app.syncService(fromDir)
			if err != nil {
				return err
			}
			resolution, err := service.Apply(cmd.Context(), plan, strategy)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resolutionJSON(resolution))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), walletrender.Resolution(class, resolution))
			return err
		},
	}

	cmd.Flags().StringVar(&fromDir, "from", "", "Read <class>.json from this directory instead of sync.url")
	cmd.Flags().StringVar(&rawStrategy, "strategy", "", "Resolution strategy (server|merge)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("strategy")

	return cmd
}

func fetchPlan(cmd *cobra.Command, app *app, class domain.CollectionClass, fromDir string, quiet bool) (application.SyncPlan, error) {
	service, err := app.syncService(fromDir)
	if err != nil {
		return application.SyncPlan{}, err
	}

	if quiet {
		return service.Plan(cmd.Context(), class)
	}
	return runPlanFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), class, func(ctx context.Context) (application.SyncPlan, error) {
		return service.Plan(ctx, class)
	})
}

type conflictOutput struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Type       string `json:"type"`
	Cached     string `json:"cached_version,omitempty"`
	Server     string `json:"server_version,omitempty"`
}

func conflictsJSON(conflicts []domain.SyncConflict) []conflictOutput {
	out := make([]conflictOutput, 0, len(conflicts))
	for _, conflict := range conflicts {
		item := conflictOutput{
			EntityID:   conflict.EntityID,
			EntityName: conflict.EntityName,
			Type:       string(conflict.Type),
		}
		if conflict.Cached != nil {
			item.Cached = conflict.Cached.Version
		}
		if conflict.Server != nil {
			item.Server = conflict.Server.Version
		}
		out = append(out, item)
	}
	return out
}

type resolutionOutput struct {
	Strategy string         `json:"strategy"`
	Counts   map[string]int `json:"counts"`
	Merged   []string       `json:"merged"`
}

func resolutionJSON(resolution domain.Resolution) resolutionOutput {
	out := resolutionOutput{
		Strategy: string(resolution.Strategy),
		Counts:   make(map[string]int, len(resolution.Counts)),
		Merged:   make([]string, 0, len(resolution.Merged)),
	}
	for rule, count := range resolution.Counts {
		out.Counts[string(rule)] = count
	}
	for _, entity := range resolution.Merged {
		out.Merged = append(out.Merged, entity.ID)
	}
	return out
}
