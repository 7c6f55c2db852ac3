package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gburca/rofs-filtered/internal/fs"
	"github.com/gburca/rofs-filtered/internal/logging"
	"github.com/gburca/rofs-filtered/internal/rules"
)

const defaultConfigFile = "/etc/rofs-filtered.rc"

var version = "1.8.0"

var (
	logger = logging.GetLogger()

	sourceDir     string
	configFile    string
	invert        bool
	preservePerms bool
	debug         bool
)

var rootCmd = &cobra.Command{
	Use:   "rofs-filtered <mountpoint>",
	Short: "Mount a directory read-only, hiding entries that match a rule file",
	Long: `rofs-filtered exposes a source directory through a read-only FUSE mount,
hiding entries that match the regular expressions, file-type rules, and
extension priorities in the config file. All writes are refused.`,
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "directory to mount read-only and filter (required)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", defaultConfigFile, "filter rule file")
	rootCmd.Flags().BoolVar(&invert, "invert", false, "the rule file specifies files to allow instead of hide")
	rootCmd.Flags().BoolVar(&preservePerms, "preserve-perms", false, "do not clear write permission bits")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("source")
}

func run(_ *cobra.Command, args []string) error {
	if debug {
		logger.SetLevel(logging.LevelDebug)
	}

	mountPoint := filepath.Clean(args[0])
	source := filepath.Clean(sourceDir)

	logger.Info("Starting up. Using source: %s and config: %s", source, configFile)

	ruleSet, err := rules.Load(configFile, rules.Options{
		Invert:        invert,
		PreservePerms: preservePerms,
	})
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	rofs, err := fs.NewRoFS(source, ruleSet)
	if err != nil {
		return err
	}

	if err := rofs.Mount(mountPoint); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal %v", sig)
		if err := rofs.Unmount(mountPoint); err != nil {
			logger.Error("Unmount error: %v", err)
		}
	}()

	rofs.Wait()
	logger.Info("Clean shutdown complete")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
