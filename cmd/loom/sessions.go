package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftworks/loom/internal/presentation/tui"
	"github.com/weftworks/loom/pkg/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved session IDs",
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("store-dir")
		ids, err := store.NewFileStore(dir).List(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved session transcript",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("store-dir")
		plain, _ := cmd.Flags().GetBool("plain")

		sess, err := store.NewFileStore(dir).Load(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		renderer := tui.NewRenderer(plain)
		for _, msg := range sess.Messages() {
			renderer.Print(msg)
		}
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("store-dir")
		if err := store.NewFileStore(dir).Delete(context.Background(), args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	sessionsCmd.PersistentFlags().String("store-dir", "", "Session store directory (default .loom/sessions)")
	sessionsShowCmd.Flags().Bool("plain", false, "Disable markdown rendering")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
