package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postgrade",
		Short:         "Score social media drafts before you post them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(scoreCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(runCmd())

	return root
}

type scoreFlags struct {
	media      string
	mediaCount int
	thread     int
	reply      bool
	quote      bool
	followers  int
	premium    bool
	verified   bool
	at         string
	jsonOutput bool
	save       bool
	ai         bool
}

func scoreCmd() *cobra.Command {
	var f scoreFlags

	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score a draft (reads stdin when text is omitted or \"-\")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args, f)
		},
	}

	cmd.Flags().StringVar(&f.media, "media", "none", "attached media: none, image, video, gif or poll")
	cmd.Flags().IntVar(&f.mediaCount, "media-count", 0, "number of attachments (default 1 when --media is set)")
	cmd.Flags().IntVar(&f.thread, "thread", 0, "thread length; marks the draft as a thread when > 1")
	cmd.Flags().BoolVar(&f.reply, "reply", false, "draft is a reply")
	cmd.Flags().BoolVar(&f.quote, "quote", false, "draft quotes another post")
	cmd.Flags().IntVar(&f.followers, "followers", 0, "follower count (default: from config)")
	cmd.Flags().BoolVar(&f.premium, "premium", false, "account has premium (default: from config)")
	cmd.Flags().BoolVar(&f.verified, "verified", false, "account is verified (default: from config)")
	cmd.Flags().StringVar(&f.at, "at", "", "planned publish time, RFC3339 (default: now)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the result in history")
	cmd.Flags().BoolVar(&f.ai, "ai", false, "also ask the configured LLM for a review")
	return cmd
}

func scanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [text]",
		Short: "Scan a draft for controversy only",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		opts       historyOpts
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously scored posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "filter by source (cli, api or a watched feed)")
	cmd.Flags().StringVar(&opts.grade, "grade", "", "filter by grade")
	cmd.Flags().StringVar(&opts.risk, "risk", "", "filter by risk level")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "only posts scored within this duration (e.g. 24h)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max posts to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func statsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize scoring history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func watchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Score new posts from watched feeds and alert on risky ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with watcher and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
