// xml3d-export converts scene files into XML3D web documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/xml3d-exporter/internal/exporter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xml3d-export",
		Short: "Export 3D scenes as XML3D web documents",
		Long: `xml3d-export - XML3D scene exporter

Reads YAML/JSON scene dumps and glTF 2.0 files and writes an XML3D
document with its assets, materials, textures and armatures.`,
		Example: `  xml3d-export export scene.yaml -o out/index.html
  xml3d-export export model.glb --template preview --clustering layer
  xml3d-export watch scene.yaml -o out/index.html
  xml3d-export info out/info/xml3d-info.json`,
		SilenceUsage: true,
	}
	root.AddCommand(newExportCmd(), newWatchCmd(), newInfoCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the exporter version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), exporter.Generator)
		},
	}
}
