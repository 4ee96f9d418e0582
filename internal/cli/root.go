// Package cli implements the snapcapsule command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"snapcapsule/internal/display"
	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/library"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/metrics"
	"snapcapsule/internal/repair"
	"snapcapsule/internal/startup"
	"snapcapsule/internal/transcoder"
)

// newMediaTool builds the media tool commands use. Tests replace it.
var newMediaTool = func(cfg transcoder.Config) repair.MediaTool {
	return transcoder.New(cfg)
}

// options holds the persistent flags. Empty values fall back to the
// environment.
type options struct {
	dataRoot     string
	chatMediaDir string
	memoriesDir  string
	ffmpegPath   string
	ffprobePath  string
	logLevel     string
	noColor      bool

	cfg   *startup.Config
	style styler
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "snapcapsule",
		Short: "Link and repair the media in a Snapchat data export",
		Long: `snapcapsule indexes the chat_media and memories folders of a Snapchat
data export, resolves chat and memory records to their files, reports how
much of the export is intact and repairs media saved under the wrong type.

Configuration comes from the environment (or a .env file); flags override it.

Quick Start:
  snapcapsule audit --data-root ./mydata        # Integrity report
  snapcapsule repair --dry-run                  # Show what would be repaired
  snapcapsule repair                            # Repair, keeping backups
  snapcapsule revert                            # Restore the backups
  snapcapsule serve                             # HTTP API`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", startup.Version, startup.Commit, startup.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.OutOrStdout())
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataRoot, "data-root", "", "Export root containing json/ (default $DATA_ROOT or .)")
	flags.StringVar(&opts.chatMediaDir, "chat-media-dir", "", "Chat media folder (default <data-root>/chat_media)")
	flags.StringVar(&opts.memoriesDir, "memories-dir", "", "Memories folder (default <data-root>/memories)")
	flags.StringVar(&opts.ffmpegPath, "ffmpeg", "", "ffmpeg binary (default $FFMPEG_PATH or ffmpeg)")
	flags.StringVar(&opts.ffprobePath, "ffprobe", "", "ffprobe binary (default: next to ffmpeg)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newIndexCmd(opts),
		newResolveCmd(opts),
		newMemoryPathCmd(opts),
		newAuditCmd(opts),
		newDisplayCmd(opts),
		newRepairCmd(opts),
		newRevertCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// load resolves configuration and applies flag overrides.
func (o *options) load(out io.Writer) error {
	var level logging.LogLevel
	if o.logLevel != "" {
		var ok bool
		if level, ok = logging.ParseLevel(o.logLevel); !ok {
			return fmt.Errorf("unknown log level %q", o.logLevel)
		}
	}

	cfg, err := startup.LoadConfig()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		logging.SetLevel(level)
	}

	if o.dataRoot != "" {
		cfg.DataRoot = o.dataRoot
		// Folder defaults follow the overridden root unless set explicitly.
		if os.Getenv("CHAT_MEDIA_DIR") == "" {
			cfg.ChatMediaDir = ""
		}
		if os.Getenv("MEMORIES_DIR") == "" {
			cfg.MemoriesDir = ""
		}
	}
	if o.chatMediaDir != "" {
		cfg.ChatMediaDir = o.chatMediaDir
	}
	if o.memoriesDir != "" {
		cfg.MemoriesDir = o.memoriesDir
	}
	if o.ffmpegPath != "" {
		cfg.FFmpegPath = o.ffmpegPath
		if o.ffprobePath == "" && os.Getenv("FFPROBE_PATH") == "" {
			cfg.FFprobePath = transcoder.DefaultFFprobePath(o.ffmpegPath)
		}
	}
	if o.ffprobePath != "" {
		cfg.FFprobePath = o.ffprobePath
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"chat_media": cfg.ChatMediaDir,
		"memories":   cfg.MemoriesDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	o.cfg = cfg
	o.style = newStyler(out, o.noColor)
	return nil
}

// openLibrary loads the export described by the configuration.
func (o *options) openLibrary() (*library.Library, error) {
	resolver := display.NewResolver(display.Options{UseVips: o.cfg.VipsEnabled})
	lib := library.New(o.cfg.LibraryConfig(), newMediaTool(o.cfg.TranscoderConfig()), resolver)
	if err := lib.Reload(); err != nil {
		return nil, err
	}
	return lib, nil
}
