package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/checkpoint"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/session"
)

const ownAnswer = "Type my own answer..."

var (
	chatLocation string
	chatWeather  string
	chatTime     string
	chatSession  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bartender in the terminal",
	Long: `Starts an interactive conversation with the bartender. Pick one of the
suggested answers or type your own. Interrupted sessions can be picked up
again with --session when checkpoints are stored in sqlite or redis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.index.Count() == 0 {
			return fmt.Errorf("the drink index is empty; run `barback catalog import <file>` first")
		}

		engine, err := a.engine()
		if err != nil {
			return err
		}
		store, err := checkpoint.New(cfg.Checkpoint, a.db)
		if err != nil {
			return fmt.Errorf("creating checkpoint store: %w", err)
		}
		defer store.Close()

		svc := session.NewService(engine, store, logger)
		turn, err := openingTurn(ctx, svc)
		if err != nil {
			return err
		}
		return converse(ctx, svc, turn)
	},
}

// openingTurn starts a fresh session, or replays the last bartender line of
// the session named by --session.
func openingTurn(ctx context.Context, svc *session.Service) (dialogue.OutboundTurn, error) {
	if chatSession == "" {
		local := chatTime
		if local == "" {
			local = time.Now().Format("15:04")
		}
		return svc.Start(ctx, dialogue.Context{
			Weather:   chatWeather,
			Location:  chatLocation,
			LocalTime: local,
		})
	}

	st, err := svc.History(ctx, chatSession)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return dialogue.OutboundTurn{}, fmt.Errorf("session %s not found or expired", chatSession)
	}
	if err != nil {
		return dialogue.OutboundTurn{}, err
	}
	last, _ := st.LastAssistantTurn()
	return dialogue.OutboundTurn{
		SessionID:      st.SessionID,
		Message:        last.Text,
		Options:        last.Options,
		Phase:          st.Phase,
		Recommendation: st.Recommendation,
	}, nil
}

func converse(ctx context.Context, svc *session.Service, turn dialogue.OutboundTurn) error {
	for {
		fmt.Printf("\nBartender: %s\n", turn.Message)

		if turn.Phase == dialogue.PhaseDone {
			printRecommendation(turn.Recommendation)
			return nil
		}

		answer, err := askPatron(turn.Options)
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			fmt.Fprintf(os.Stderr, "\nSee you later. Resume with: barback chat --session %s\n", turn.SessionID)
			return nil
		}
		if err != nil {
			return err
		}

		next, err := svc.Resume(ctx, turn.SessionID, answer)
		if errors.Is(err, dialogue.ErrMatcherUnavailable) || errors.Is(err, dialogue.ErrNoCandidates) {
			fmt.Fprintf(os.Stderr, "The bar is having trouble finding drinks right now (%v). Try again.\n", err)
			continue
		}
		if err != nil {
			return err
		}
		turn = next
	}
}

// askPatron offers the suggested options plus free text.
func askPatron(options []string) (string, error) {
	if len(options) > 0 {
		sel := promptui.Select{
			Label: "You",
			Items: append(append([]string{}, options...), ownAnswer),
		}
		_, choice, err := sel.Run()
		if err != nil {
			return "", err
		}
		if choice != ownAnswer {
			return choice, nil
		}
	}

	prompt := promptui.Prompt{
		Label: "You",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("say something to the bartender")
			}
			return nil
		},
	}
	return prompt.Run()
}

func printRecommendation(rec *dialogue.Recommendation) {
	if rec == nil {
		return
	}
	fmt.Printf("\n  Recommended: %s\n", rec.Name)
	if rec.ReferenceURL != "" {
		fmt.Printf("  Recipe: %s\n", rec.ReferenceURL)
	}
	if verbose && len(rec.Candidates) > 1 {
		fmt.Println("\n  Also considered:")
		for _, c := range rec.Candidates[1:] {
			fmt.Printf("    %-24s %.3f\n", c.Name, c.Similarity)
		}
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatLocation, "location", "", "Where you are drinking (e.g. \"Lisbon\")")
	chatCmd.Flags().StringVar(&chatWeather, "weather", "", "Current weather (e.g. \"rainy\")")
	chatCmd.Flags().StringVar(&chatTime, "time", "", "Local time; defaults to now")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "Resume a saved session by id")
	rootCmd.AddCommand(chatCmd)
}
