package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Faultbox/xml3d-exporter/internal/report"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <xml3d-info.json>",
		Short: "Show the statistics of a previous export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "Run:       %s\n", rep.RunID)
	fmt.Fprintf(w, "Generator: %s\n", rep.Generator)
	fmt.Fprintf(w, "Created:   %s\n", rep.Created.Format("2006-01-02 15:04:05"))
	if rep.Scene != nil {
		fmt.Fprintf(w, "Document:  %s (%.2f KB)\n", rep.Scene.Name, float64(rep.Scene.Size)/1024)
	}
	fmt.Fprintf(w, "Groups:    %d\n", rep.Groups)
	fmt.Fprintf(w, "Views:     %d\n", rep.Views)
	fmt.Fprintf(w, "Lights:    %d\n", rep.Lights)
	fmt.Fprintf(w, "Meshes:    %d\n", len(rep.Meshes))

	sections := []struct {
		title string
		files []report.FileStat
	}{
		{"Assets", rep.Assets},
		{"Materials", rep.Materials},
		{"Textures", rep.Textures},
		{"Armatures", rep.Armatures},
	}
	for _, s := range sections {
		if len(s.files) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", s.title)
		files := append([]report.FileStat(nil), s.files...)
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
		for _, f := range files {
			fmt.Fprintf(w, "  %-32s %8d\n", f.Name, f.Size)
		}
	}

	if len(rep.Warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Warnings (%d):\n", len(rep.Warnings))
	for _, warn := range rep.Warnings {
		prefix := warn.Category
		if warn.Object != "" {
			prefix += " " + warn.Object
		}
		if warn.Issue > 0 {
			fmt.Fprintf(w, "  [%s] %s (issue #%d)\n", prefix, warn.Message, warn.Issue)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", prefix, warn.Message)
		}
	}
}
