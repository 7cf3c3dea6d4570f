package cobraaux

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestRegisterCommandChainsPreRun(t *testing.T) {
	var calls []string
	root := &cobra.Command{
		Use: "root",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			calls = append(calls, "root")
			return nil
		},
	}
	child := &cobra.Command{
		Use: "child",
		PersistentPreRun: func(*cobra.Command, []string) {
			calls = append(calls, "child")
		},
		RunE: func(*cobra.Command, []string) error {
			calls = append(calls, "run")
			return nil
		},
	}
	RegisterCommand(root, child)
	root.SetArgs([]string{"child"})
	require.NoError(t, root.Execute())
	require.Equal(t, []string{"root", "child", "run"}, calls)
}

func TestRegisterCommandParentFailure(t *testing.T) {
	root := &cobra.Command{
		Use:           "root",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return xerrors.New("bad flags")
		},
	}
	ran := false
	child := &cobra.Command{
		Use:               "child",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			ran = true
			return nil
		},
	}
	RegisterCommand(root, child)
	root.SetArgs([]string{"child"})
	require.Error(t, root.Execute())
	require.False(t, ran)
}
