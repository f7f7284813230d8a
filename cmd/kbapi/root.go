package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/securizon/kbapi/internal/config"
	"github.com/securizon/kbapi/internal/knowledgebase"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "kbapi",
		Short:         "Knowledge base API for IT support assistants",
		Long:          "kbapi serves a fixed set of knowledge base articles over HTTP with search, popularity, category and issue analysis endpoints.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $CONFIG_PATH or built-in defaults)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newArticlesCmd(&configPath))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kbapi %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})
	return root
}

func newArticlesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "articles",
		Short: "List the articles the server would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, err := knowledgebase.OpenStore(cfg.Knowledge.ArticlesFile)
			if err != nil {
				return err
			}
			articles, err := store.ListArticles(cmd.Context())
			if err != nil {
				return err
			}
			return printArticles(cmd.OutOrStdout(), articles)
		},
	}
}

func printArticles(w io.Writer, articles []knowledgebase.Article) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKB NUMBER\tCATEGORY\tTITLE")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.KBNumber, a.Category, a.Title)
	}
	return tw.Flush()
}
