package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

func newQueueCmd() *cobra.Command {
	// All mutation subcommands target one tournament session
	var sessionID string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drive the offline mutation queue",
	}

	cmd.PersistentFlags().StringVar(&sessionID, "session", "", "Tournament session id the mutation targets")

	cmd.AddCommand(newQueueListCmd())
	cmd.AddCommand(newQueueDrainCmd())
	cmd.AddCommand(newQueueScoreCmd(&sessionID))
	cmd.AddCommand(newQueueRoundCmd(&sessionID))
	cmd.AddCommand(newQueueStatusCmd(&sessionID))
	cmd.AddCommand(newQueueReassignCmd(&sessionID))

	return cmd
}

func newQueueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show queued operations in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.Outbox.Operations()
			if len(ops) == 0 {
				printf("queue is empty")
				return nil
			}
			return printJSON(ops)
		},
	}
}

func newQueueDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay the queued operations against the remote service",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Outbox.Drain(cmd.Context())
			if err != nil {
				return err
			}
			printf("drained: %d succeeded, %d failed permanently, %d still queued",
				result.Succeeded, result.Failed, app.Outbox.Length())
			return nil
		},
	}
}

func newQueueScoreCmd(sessionID *string) *cobra.Command {
	var matchID string
	var team1, team2 int

	cmd := &cobra.Command{
		Use:   "add-score",
		Short: "Queue a match score update",
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, *sessionID, model.UpdateScorePayload{
				MatchID:    matchID,
				Team1Score: team1,
				Team2Score: team2,
			})
		},
	}

	cmd.Flags().StringVar(&matchID, "match", "", "Match id")
	cmd.Flags().IntVar(&team1, "team1", 0, "Team 1 score")
	cmd.Flags().IntVar(&team2, "team2", 0, "Team 2 score")
	_ = cmd.MarkFlagRequired("match")

	return cmd
}

func newQueueRoundCmd(sessionID *string) *cobra.Command {
	var roundNumber int
	var roundData string
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "add-round",
		Short: "Queue a generated (or regenerated) round",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := json.RawMessage(roundData)
			if !json.Valid(data) {
				printf("round data must be valid JSON")
				return cmd.Help()
			}
			var payload model.OperationPayload
			if regenerate {
				payload = model.RegenerateRoundPayload{RoundNumber: roundNumber, RoundData: data}
			} else {
				payload = model.GenerateRoundPayload{RoundNumber: roundNumber, RoundData: data}
			}
			return enqueue(cmd, *sessionID, payload)
		},
	}

	cmd.Flags().IntVar(&roundNumber, "round", 1, "Round number")
	cmd.Flags().StringVar(&roundData, "data", "{}", "Round data as JSON")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Replace an existing round instead of appending")

	return cmd
}

func newQueueStatusCmd(sessionID *string) *cobra.Command {
	var playerID, status string

	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Queue a player availability change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, *sessionID, model.UpdatePlayerStatusPayload{
				PlayerID: playerID,
				Status:   status,
			})
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player id")
	cmd.Flags().StringVar(&status, "status", "active", "New status (active, resting, left)")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}

func newQueueReassignCmd(sessionID *string) *cobra.Command {
	var playerID, matchID string
	var position int

	cmd := &cobra.Command{
		Use:   "reassign",
		Short: "Queue a player reassignment to another match slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, *sessionID, model.ReassignPlayerPayload{
				PlayerID: playerID,
				MatchID:  matchID,
				Position: position,
			})
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player id")
	cmd.Flags().StringVar(&matchID, "match", "", "Target match id")
	cmd.Flags().IntVar(&position, "position", 0, "Slot position within the match")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("match")

	return cmd
}

func enqueue(cmd *cobra.Command, sessionID string, payload model.OperationPayload) error {
	if sessionID == "" {
		printf("--session is required")
		return cmd.Help()
	}
	id, err := app.Outbox.Enqueue(cmd.Context(), model.SessionID(sessionID), payload)
	if err != nil {
		return err
	}
	printf("queued %s (%s); %d operation(s) pending", id, payload.Kind(), app.Outbox.Length())
	return nil
}
