package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage per-client QA rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients that have a rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		engine := rules.NewEngine(cfg.Rules.Dir, nil)
		clients, err := engine.List()
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Printf("No rules files in %s\n", cfg.Rules.Dir)
			return nil
		}
		for _, c := range clients {
			fmt.Println(c)
		}
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init <client>",
	Short: "Create a starter rules file for a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		engine := rules.NewEngine(cfg.Rules.Dir, nil)
		path, err := engine.Save(rules.DefaultRules(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Validate a rules file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		problems, err := rules.Lint(raw)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Printf("%s is valid\n", args[0])
			return nil
		}
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], p)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd, rulesInitCmd, rulesLintCmd)
	rootCmd.AddCommand(rulesCmd)
}
