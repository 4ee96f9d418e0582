package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"snapcapsule/internal/archive"
	"snapcapsule/internal/audit"
	"snapcapsule/internal/display"
)

func newIndexCmd(o *options) *cobra.Command {
	var showKeys bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the media index and print its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			idx := lib.Index()

			fmt.Fprintln(out, o.style.section("Media index"))
			fmt.Fprintf(out, "  Chat media:  %d files (%s)\n", idx.CountIn(o.cfg.ChatMediaDir), o.cfg.ChatMediaDir)
			fmt.Fprintf(out, "  Memories:    %d files (%s)\n", idx.CountIn(o.cfg.MemoriesDir), o.cfg.MemoriesDir)
			fmt.Fprintf(out, "  Keys:        %d\n", idx.Len())

			if showKeys {
				fmt.Fprintln(out)
				for _, key := range idx.Keys() {
					path, _ := idx.Lookup(key)
					fmt.Fprintf(out, "%s\t%s\n", key, path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showKeys, "keys", false, "List every key and the file it resolves to")
	return cmd
}

func newResolveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <media-ids>...",
		Short: "Resolve chat Media IDs to files",
		Long: `Resolve chat Media IDs to files. Arguments may be separate ids or a
single "id1 | id2" value as found in chat_history.json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ref := archive.Joined(strings.Join(args, "|"))
			missing := 0
			for _, id := range ref.IDs() {
				paths := lib.ResolveChatMedia(archive.List(id))
				if len(paths) == 0 {
					missing++
					fmt.Fprintf(out, "%s\t%s\n", id, o.style.warning("missing"))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", id, paths[0])
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d ids not found", missing, len(ref.IDs()))
			}
			return nil
		},
	}
}

func newMemoryPathCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   `memory-path "<YYYY-MM-DD HH:MM:SS UTC>"`,
		Short: "Find the file saved for a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := archive.Memory{Date: args[0]}
			if _, ok := m.Time(); !ok {
				return fmt.Errorf("date %q does not match %q", args[0], archive.RecordTimeLayout)
			}

			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			path, ok := lib.ResolveMemoryPath(m)
			if !ok {
				return fmt.Errorf("no file for memory %s", m.Describe())
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newAuditCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report how many referenced media files are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			report := lib.Audit()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintln(out, o.style.section("Integrity"))
			fmt.Fprintf(out, "  Chats:     %s\n", o.counter(report.Chats))
			fmt.Fprintf(out, "  Memories:  %s\n", o.counter(report.Memories))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func (o *options) counter(c audit.Counter) string {
	s := c.String()
	switch {
	case c.Missing == 0:
		return o.style.success(s)
	case c.Percent() >= 90:
		return o.style.warning(s)
	default:
		return o.style.failure(s)
	}
}

func newDisplayCmd(o *options) *cobra.Command {
	var (
		output      string
		quality     int
		placeholder bool
	)
	cmd := &cobra.Command{
		Use:   "display <path>",
		Short: "Render a media file, with its overlay, as a JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := display.NewResolver(display.Options{UseVips: o.cfg.VipsEnabled})
			if o.cfg.VipsEnabled {
				display.InitVips()
				defer display.ShutdownVips()
			}

			img, err := resolver.GetDisplayImage(args[0])
			if errors.Is(err, display.ErrDecodeFailure) && placeholder {
				img, err = display.Placeholder(1, 1), nil
			}
			if err != nil {
				return err
			}
			return writeJPEG(output, img, quality)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "display.jpg", "Output file")
	cmd.Flags().IntVar(&quality, "quality", display.DefaultJPEGQuality, "JPEG quality (1-100)")
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "Write a placeholder instead of failing when nothing decodes")
	return cmd
}

func writeJPEG(path string, img image.Image, quality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return display.EncodeJPEG(f, img, quality)
}
