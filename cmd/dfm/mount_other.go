//go:build !linux && !darwin

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <dir>",
	Short: "Mount the tree as a read-only filesystem (Linux and macOS only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("mount is not supported on this platform")
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
