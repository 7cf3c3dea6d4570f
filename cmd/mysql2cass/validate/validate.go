package validate

import (
	"github.com/doublecloud/mysql2cass/cmd/mysql2cass/config"
	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func ValidateCommand() *cobra.Command {
	var configPath string
	validationCommand := &cobra.Command{
		Use:   "validate",
		Short: "Validate a mappings configuration",
		RunE:  validate(&configPath),
	}
	validationCommand.Flags().StringVar(&configPath, "config", "./mappings.yaml", "path to yaml file with mappings configuration")
	return validationCommand
}

func validate(configPath *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		mappings, err := config.LoadMappings(*configPath)
		if err != nil {
			return xerrors.Errorf("mappings validation failed: %w", err)
		}
		for _, m := range mappings {
			logger.Log.Infof("%s 👌mapping config", m.ID())
			cmd.Println(m.ID())
		}
		return nil
	}
}
