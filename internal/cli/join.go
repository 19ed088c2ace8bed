package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/edulive/classmesh/internal/config"
	"github.com/edulive/classmesh/internal/media"
	"github.com/edulive/classmesh/internal/session"
	"github.com/edulive/classmesh/internal/signaling"
	"github.com/edulive/classmesh/internal/ui"
)

var (
	flagJoinName     string
	flagJoinUserID   string
	flagJoinRole     string
	flagJoinRelayURL string
	flagJoinSTUN     string
	flagJoinTURN     string
	flagJoinTURNUser string
	flagJoinTURNPass string
	flagJoinRelay    bool
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id>",
	Aliases: []string{"j"},
	Short:   "Join a classroom",
	Long: `Join a classroom by room id. The relay assigns this client its connection
identity; every other participant in the room gets a direct media connection.

Examples:
  classmesh join algebra-101 --name "Ms. Daniels" --role teacher
  classmesh join algebra-101 --name Sam`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return joinRoom(args[0])
	},
}

func joinRoom(roomID string) error {
	cfg, err := config.Load(config.Options{
		RelayURL:   flagJoinRelayURL,
		STUNServer: flagJoinSTUN,
		TURNServer: flagJoinTURN,
		TURNUser:   flagJoinTURNUser,
		TURNPass:   flagJoinTURNPass,
		ForceRelay: flagJoinRelay,
	})
	if err != nil {
		return err
	}

	name := flagJoinName
	if name == "" {
		name = "Me"
	}

	client := signaling.NewClient(cfg.RelayURL)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect to relay: %w", err)
	}

	// The session publishes snapshots into the bubbletea program; the
	// program is created right after, before the session starts.
	var program *tea.Program

	sess := session.New(session.Config{
		RoomID: roomID,
		Identity: session.Identity{
			UserID:      flagJoinUserID,
			DisplayName: name,
			Role:        flagJoinRole,
		},
		Transport: client,
		NewConn:   session.NewPionFactory(cfg),
		Pipeline:  media.NewPipeline(&media.DefaultDevice{}),
		OnUpdate: func(snap session.Snapshot) {
			program.Send(ui.SnapshotMsg(snap))
		},
	})

	model := ui.NewRoomModel(roomID, name, flagJoinRole, sess)
	program = tea.NewProgram(model, tea.WithAltScreen())

	if err := sess.Start(); err != nil {
		client.Close()
		return fmt.Errorf("start session: %w", err)
	}

	if _, err := program.Run(); err != nil {
		sess.Close()
		return err
	}

	sess.Close()
	<-sess.Done()
	return nil
}

func init() {
	joinCmd.Flags().StringVarP(&flagJoinName, "name", "n", "", "Display name announced to the room")
	joinCmd.Flags().StringVar(&flagJoinUserID, "user", "", "User id supplied by the hosting platform")
	joinCmd.Flags().StringVarP(&flagJoinRole, "role", "r", "student", "Role in the room (teacher or student)")
	joinCmd.Flags().StringVar(&flagJoinRelayURL, "relay-url", "", "Signaling relay websocket URL")
	joinCmd.Flags().StringVar(&flagJoinSTUN, "stun", "", "STUN server URL")
	joinCmd.Flags().StringVar(&flagJoinTURN, "turn", "", "TURN server URL")
	joinCmd.Flags().StringVar(&flagJoinTURNUser, "turn-user", "", "TURN username")
	joinCmd.Flags().StringVar(&flagJoinTURNPass, "turn-pass", "", "TURN password")
	joinCmd.Flags().BoolVar(&flagJoinRelay, "force-relay", false, "Force media through the TURN server")

	rootCmd.AddCommand(joinCmd)
}
