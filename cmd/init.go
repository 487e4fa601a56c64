package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aictl/idchat/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up idchat: backend URL, session lifetime and token store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	fmt.Println("Welcome to the idchat configuration wizard!")
	fmt.Println()

	cfg.Backend.BaseURL = prompt(reader, "Backend URL", cfg.Backend.BaseURL)

	ttl := prompt(reader, "Session lifetime in minutes", strconv.Itoa(cfg.Session.TTLMinutes))
	if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
		cfg.Session.TTLMinutes = n
	} else {
		fmt.Printf("Invalid number %q, keeping %d.\n", ttl, cfg.Session.TTLMinutes)
	}

	stores := []string{"sqlite", "bolt", "memory"}
	fmt.Println("\nSession stores:")
	for i, s := range stores {
		fmt.Printf("  %d. %s\n", i+1, s)
	}
	choice := prompt(reader, "Select store (1-3)", "1")
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(stores) {
		cfg.Session.Store = stores[n-1]
	}
	fmt.Printf("Selected: %s\n\n", cfg.Session.Store)

	configPath := cfgFile
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		configPath = p
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		answer := prompt(reader, "Overwrite? [y/N]", "n")
		if strings.ToLower(answer) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	fmt.Printf("\nConfig saved to %s\n", configPath)
	fmt.Println("You can now run: idchat")
	return nil
}

func prompt(r *bufio.Reader, label, def string) string {
	fmt.Printf("%s [%s]: ", label, def)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}
