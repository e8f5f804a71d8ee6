package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nexus/internal/dispatch"
	"github.com/roach88/nexus/internal/model"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset [entity...]",
		Short: "Delete every row of the given entities (all entities by default)",
		Long: `Delete all recorded rows of one or more entities. With no arguments every
entity is cleared. The schema is kept.

Example:
  nexus reset --yes
  nexus reset plots rewards --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func runReset(cmd *cobra.Command, opts *ResetOptions, tags []string) error {
	out := formatterFor(cmd, opts.RootOptions)
	if !opts.Yes {
		_ = out.Error(ErrCodeArguments, "reset deletes data; pass --yes to confirm", nil)
		return NewExitError(ExitCommandError, "reset not confirmed")
	}
	if len(tags) == 0 {
		for _, e := range model.AllEntities() {
			tags = append(tags, e.Plural())
		}
	}

	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.Verbose, cmd.ErrOrStderr())
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := dispatch.New(st, dispatch.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build dispatcher", err)
	}

	deleted := map[string]any{}
	for _, tag := range tags {
		res := d.DeleteAll(cmd.Context(), tag)
		if !res.Success {
			return out.Result(res)
		}
		data, _ := res.Data.(map[string]any)
		deleted[tag] = data["deleted"]
		out.VerboseLog("%s: deleted %v", tag, data["deleted"])
	}

	if opts.Format == "json" {
		return out.Success(deleted)
	}
	for _, tag := range tags {
		fmt.Fprintf(out.Writer, "%s: deleted %v\n", tag, deleted[tag])
	}
	return nil
}
