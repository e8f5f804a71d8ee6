package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult reports the database prepared by the init command.
type InitResult struct {
	Path          string `json:"path"`
	SchemaVersion uint   `json:"schema_version"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("database ready: %s (schema version %d)", r.Path, r.SchemaVersion)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database and exit",
		Long: `Create the database file if it does not exist and apply any pending
schema migrations. Safe to run repeatedly; existing data is kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatterFor(cmd, rootOpts)

			cfg, err := loadConfig(cmd, rootOpts)
			if err != nil {
				_ = out.Error(ErrCodeConfig, err.Error(), nil)
				return err
			}
			st, err := openStore(cfg, newLogger(cfg, rootOpts.Verbose, cmd.ErrOrStderr()))
			if err != nil {
				_ = out.Error(ErrCodeDatabase, err.Error(), nil)
				return err
			}
			defer st.Close()

			version, dirty, err := st.SchemaVersion()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read schema version", err)
			}
			if dirty {
				return NewExitError(ExitCommandError, "database schema is dirty")
			}
			return out.Success(InitResult{Path: absPath(cfg.DatabasePath()), SchemaVersion: version})
		},
	}
}
