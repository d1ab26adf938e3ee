package main

import (
	"period-tracker/registry"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func appsCmd(apps *registry.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the application references run can serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Reference", "Module", "Attribute"})
			for _, entry := range apps.Entries() {
				table.Append([]string{entry.Ref.String(), entry.Ref.Module, entry.Ref.Attribute})
			}
			table.Render()
			return nil
		},
	}
}
