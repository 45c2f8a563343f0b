package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var session string
	var model string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat from the terminal; omit the message for an interactive session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			emit := func(delta string) { fmt.Print(delta) }

			if len(args) == 1 {
				if _, err := a.chatSvc.SendInteractive(ctx, session, model, args[0], emit); err != nil {
					return err
				}
				fmt.Println()
				return nil
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if _, err := a.chatSvc.SendInteractive(ctx, session, model, line, emit); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println()
			}
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "session id (defaults to \"default\")")
	cmd.Flags().StringVar(&model, "model", "", "model identifier (defaults to config)")
	return cmd
}
