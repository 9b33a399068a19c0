package cli

import (
	"github.com/spf13/cobra"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

func newDevicesCmd() *cobra.Command {
	// A suspended sign-in clears the local session, so device management
	// must still be reachable by explicit user id
	var userID string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the account's active devices",
	}

	cmd.PersistentFlags().StringVar(&userID, "user", "", "User id (defaults to the signed-in session)")

	cmd.AddCommand(newDevicesListCmd(&userID))
	cmd.AddCommand(newDevicesRemoveCmd(&userID))

	return cmd
}

func newDevicesListCmd(userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List devices registered to the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := resolveUser(cmd, *userID)
			if err != nil {
				return err
			}
			devices, err := app.Remote.ListDevices(cmd.Context(), uid)
			if err != nil {
				return err
			}
			return printJSON(devices)
		},
	}
}

func newDevicesRemoveCmd(userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <device-id>",
		Short: "Remove a device, freeing a slot for a suspended sign-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := resolveUser(cmd, *userID)
			if err != nil {
				return err
			}
			deviceID := model.DeviceID(args[0])
			if err := app.Remote.RemoveDevice(cmd.Context(), uid, deviceID); err != nil {
				return err
			}
			printf("device %s removed", deviceID)
			return nil
		},
	}
}

func resolveUser(cmd *cobra.Command, override string) (model.UserID, error) {
	if override != "" {
		return model.UserID(override), nil
	}
	session, err := currentUser(cmd)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}
