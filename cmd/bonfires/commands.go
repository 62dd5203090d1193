package main

import (
	"fmt"
	"time"

	"github.com/zabal/bonfires/pkg/api"
	"github.com/zabal/bonfires/pkg/bonfires"
	"github.com/zabal/bonfires/pkg/graph"

	"github.com/spf13/cobra"
)

var (
	agentID     string
	expandNodes []string
	expandLimit int

	prompt     string
	dataRoomID string
	blogLength string

	pollInterval time.Duration
	pollTimeout  time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bonfires",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.ListBonfires(cmd.Context())
		if err != nil {
			return err
		}
		for _, b := range res {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.ID, b.Name)
		}
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <bonfire-id>",
	Short: "Print the normalized graph of a bonfire, optionally expanded around nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		explorer := graph.NewExplorer(client)
		explorer.Select(args[0], agentID)
		if err := explorer.Load(cmd.Context()); err != nil {
			return err
		}
		if len(expandNodes) > 0 {
			if err := explorer.ExpandMany(cmd.Context(), expandNodes, expandLimit); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), explorer.Snapshot().Data)
	},
}

var jobCmd = &cobra.Command{
	Use:   "job <job-id>",
	Short: "Wait for a job and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := client.API().PollJobStatus(cmd.Context(), args[0], pollOptions(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr())
		_, err = cmd.OutOrStdout().Write(append(result, '\n'))
		return err
	},
}

var hyperblogCmd = &cobra.Command{
	Use:   "hyperblog <bonfire-id>",
	Short: "Generate a hyperblog and wait for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := bonfires.HyperBlogRequest{
			DataRoomID: dataRoomID,
			UserQuery:  prompt,
			BlogLength: blogLength,
		}
		blog, err := client.CreateHyperBlog(cmd.Context(), args[0], req, pollOptions(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr())
		return printJSON(cmd.OutOrStdout(), blog)
	},
}

// pollOptions reports progress on a single stderr line.
func pollOptions(cmd *cobra.Command) api.PollOptions {
	return api.PollOptions{
		Interval: pollInterval,
		Timeout:  pollTimeout,
		OnProgress: func(p float64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rprogress: %3.0f%%", p)
		},
	}
}

func init() {
	graphCmd.Flags().StringVar(&agentID, "agent", "", "Scope the graph to an agent")
	graphCmd.Flags().StringSliceVar(&expandNodes, "expand", nil, "Node UUIDs to expand after loading")
	graphCmd.Flags().IntVar(&expandLimit, "parallel", 4, "Concurrent expand requests")

	for _, c := range []*cobra.Command{jobCmd, hyperblogCmd} {
		c.Flags().DurationVar(&pollInterval, "interval", time.Second, "Polling interval")
		c.Flags().DurationVar(&pollTimeout, "timeout", 5*time.Minute, "Give up after this long")
	}

	hyperblogCmd.Flags().StringVar(&prompt, "prompt", "", "What the hyperblog should be about")
	hyperblogCmd.Flags().StringVar(&dataRoomID, "dataroom", "", "Data room to generate from")
	hyperblogCmd.Flags().StringVar(&blogLength, "length", "", "short, medium or long")
	hyperblogCmd.MarkFlagRequired("prompt")
	hyperblogCmd.MarkFlagRequired("dataroom")
}
