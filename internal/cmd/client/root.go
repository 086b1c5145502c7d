package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the cronache client.
// It registers the character command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "cronache",
		Short: "Cronache client commands",
	}
	root.AddCommand(NewCharacterCommand(baseURL))
	return root
}
