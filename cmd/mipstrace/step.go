package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/zkmips/console"
	"github.com/spf13/cobra"
)

func newStepCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "step <program>",
		Short: "Step through a program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			state, err := newState(cfg, args[0])
			if err != nil {
				return err
			}
			c, err := console.New(state)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "mips> ",
				HistoryFile: filepath.Join(os.TempDir(), "mipstrace_history.txt"),
			})
			if err != nil {
				return fmt.Errorf("starting readline: %w", err)
			}
			defer rl.Close()

			fmt.Println("JavaScript console: step(n), run(max), decode(), pc(), reg(n), mem(ctx, seg, virt), row(clock), stdout()")
			fmt.Println("Type 'exit' to quit.")
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" {
					return nil
				}
				out, err := c.Eval(line)
				if out != "" {
					fmt.Println(out)
				}
				if err != nil {
					fmt.Println("error:", err)
				}
			}
		},
	}
	f.register(cmd)
	return cmd
}
