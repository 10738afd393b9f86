package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tarefas-cli/app"
	"tarefas-cli/config"
	"tarefas-cli/folder"
	"tarefas-cli/store"
	"tarefas-cli/tui"
)

var version = "dev"

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok &&
			info.Main.Version != "" &&
			info.Main.Version != "(devel)" {
			version = strings.TrimPrefix(info.Main.Version, "v")
		}
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tarefas",
		Short: "Rastreador de tarefas com histórico de descrições",
		Long: "tarefas: rastreador de tarefas por projeto.\n\n" +
			"Cada edição da descrição detalhada gera uma nova versão imutável,\n" +
			"e cada versão ganha uma pasta própria criada no diretório base.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "tarefas %s\n", version)
				return nil
			}
			return run(cmd)
		},
	}

	root.Flags().BoolP("version", "v", false, "mostra a versão")
	root.Flags().String("config", "", "arquivo de configuração (padrão: .tarefas/config.yaml, depois ~/.tarefas/config.yaml)")
	root.Flags().String("state", "", "arquivo JSON com as tarefas (sobrepõe a configuração)")
	root.Flags().String("base-dir", "", "diretório base das pastas de versão (sobrepõe a configuração)")
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

func run(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if statePath, _ := cmd.Flags().GetString("state"); statePath != "" {
		cfg.StatePath = statePath
	}
	if baseDir, _ := cmd.Flags().GetString("base-dir"); baseDir != "" {
		cfg.BaseDir = baseDir
	}

	workspace, err := folder.NewWorkspace(cfg.BaseDir)
	if err != nil {
		return err
	}

	tasks, startupStatus, err := store.LoadWithRecovery(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("carregar tarefas de %s: %w", cfg.StatePath, err)
	}

	svc := app.NewService(tasks, workspace)
	program := tea.NewProgram(tui.NewModel(svc, cfg.StatePath, startupStatus), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.LoadPath(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("ler configuração %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
