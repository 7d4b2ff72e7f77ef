package cli

import (
	"context"
	"fmt"
	"math/rand"
	"text/tabwriter"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/content"
	"diver-exam-service/internal/domain"
	"diver-exam-service/internal/infra/memory"
	"github.com/spf13/cobra"
)

// NewResolveCmd prints the configuration and question set an exam would get,
// using the built-in question banks.
func NewResolveCmd() *cobra.Command {
	var examID, rawMode string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the resolved configuration and questions of an exam",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseMode(rawMode)
			if err != nil {
				return err
			}
			banks, err := content.Load()
			if err != nil {
				return err
			}
			bank, _ := memory.NewStaticQuestionLoader(banks).Questions(context.Background(), examID)
			questions := app.ResolveQuestions(bank, mode, rand.Shuffle)
			cfg := app.ResolveExamConfig(examID, mode)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", cfg.Title, cfg.Mode)
			fmt.Fprintf(out, "time limit: %ds, passing: %d%%\n", cfg.TimeLimitSeconds, cfg.PassingPercentage)
			for _, rule := range cfg.Components {
				fmt.Fprintf(out, "component %s: %d%% (advisory)\n", rule.Name, rule.MinPercentage)
			}
			if len(questions) == 0 {
				return fmt.Errorf("%s: %w", examID, domain.ErrExamNotFound)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tKIND\tPOINTS")
			for i, q := range questions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, q.ID, q.Kind, q.Points)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&examID, "exam", "", "exam identifier")
	cmd.Flags().StringVar(&rawMode, "mode", string(domain.ModeFull), "full or spaced_repetition")
	_ = cmd.MarkFlagRequired("exam")
	return cmd
}
