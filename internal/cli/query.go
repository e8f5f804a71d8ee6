package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/nexus/internal/dispatch"
	"github.com/roach88/nexus/internal/model"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Page    int
	Limit   int
	Start   string
	End     string
	Filters map[string]string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "Print one page of an entity's history from the database",
		Long: `Read one page of rows directly from the database file, newest first.

Example:
  nexus query plots --start "2024-04-04 00:00:00" --end "2024-04-05 00:00:00"
  nexus query farms --start "2024-01-01 00:00:00" --end "2025-01-01 00:00:00" --filter farmer_name=alice --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", model.DefaultPage, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.Limit, "limit", model.DefaultLimit, "rows per page")
	cmd.Flags().StringVar(&opts.Start, "start", "", "inclusive range start (YYYY-MM-DD HH:MM:SS) (required)")
	cmd.Flags().StringVar(&opts.End, "end", "", "inclusive range end (YYYY-MM-DD HH:MM:SS) (required)")
	cmd.Flags().StringToStringVar(&opts.Filters, "filter", nil, "equality filter column=value (repeatable)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, tag string) error {
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

	d, err := dispatch.New(st, dispatch.WithLogger(logger), dispatch.WithMaxLimit(cfg.Query.MaxLimit))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build dispatcher", err)
	}

	res := d.Query(cmd.Context(), tag, model.QueryRequest{
		Page:    opts.Page,
		Limit:   opts.Limit,
		Start:   opts.Start,
		End:     opts.End,
		Filters: opts.Filters,
	})
	return formatterFor(cmd, opts.RootOptions).Result(res)
}
