// Package main provides the CLI entrypoint for sramscan.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sramscan/internal/analyze"
	"github.com/verte-zerg/sramscan/internal/bitmap"
	"github.com/verte-zerg/sramscan/internal/bitstat"
	"github.com/verte-zerg/sramscan/internal/config"
	"github.com/verte-zerg/sramscan/internal/device"
	"github.com/verte-zerg/sramscan/internal/heatmap"
	"github.com/verte-zerg/sramscan/internal/hexdump"
	"github.com/verte-zerg/sramscan/internal/model"
	"github.com/verte-zerg/sramscan/internal/store"
	"github.com/verte-zerg/sramscan/internal/viewer"
)

const (
	defaultDumpDir    = "."
	defaultMemoryBits = 96 * 1024
	defaultMapWidth   = 256
)

var (
	rootDumpDir    string
	rootMemoryBits int
	rootCachePath  string

	bitmapEntropy     bool
	bitmapProbability bool
	bitmapCumulative  bool
	bitmapRes         string
	bitmapOut         string
	bitmapPreview     bool

	diffDumps string
	diffRes   string
	diffOut   string

	viewMapWidth int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sramscan",
		Short:         "Analyze SRAM power-up values for PUF evaluation",
		Long: `sramscan ingests raw hex memory dumps captured over repeated power
cycles of embedded devices, caches per-bit statistics per device, and renders
them as grayscale bitmaps or terminal heatmaps.

Dumps for one device are stored as '.hex' files inside a directory named
'<device>.dev'. Run 'sramscan analyze' once to populate the statistics cache
used by all other commands.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&rootDumpDir, "dump-dir", defaultDumpDir, "directory holding <device>.dev dump directories")
	rootCmd.PersistentFlags().IntVar(&rootMemoryBits, "memory-bits", defaultMemoryBits, "declared SRAM size per device in bits")
	rootCmd.PersistentFlags().StringVar(&rootCachePath, "cache", config.DefaultCachePath(), "path to the statistics cache database")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newBitmapCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newHammingCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadFileConfig(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "dump-dir", &rootDumpDir, fileCfg.Scan.DumpDir)
	applyIntConfig(cmd, "memory-bits", &rootMemoryBits, fileCfg.Scan.MemoryBits)
	if rootMemoryBits <= 0 || rootMemoryBits%8 != 0 {
		return fmt.Errorf("--memory-bits must be a positive multiple of 8")
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(rootCachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close cache: %v\n", cerr)
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [devices...]",
		Short: "Aggregate dump statistics and populate the cache",
		RunE:  runAnalyzeCmd,
	}
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	profiles, err := resolveDevices(args)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no devices found under %s", rootDumpDir)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var results []model.AnalyzeResult
	failed := 0
	for _, profile := range profiles {
		result, err := analyze.Device(ctx, st, profile)
		if err != nil {
			logErrf("analysis failed: %v\n", err)
			failed++
			continue
		}
		results = append(results, result)
	}

	if len(results) > 0 {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\nStatistical results:")
		fmt.Fprintln(out, "======================")
		fmt.Fprintf(out, "%-24s %8s %14s\n", "Device", "Dumps", "Entropy (%)")
		for _, r := range results {
			fmt.Fprintf(out, "%-24s %8d %14.4f\n", r.Device, r.Dumps, r.MeanEntropy*100)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d devices failed", failed, len(profiles))
	}
	return nil
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List discovered devices and their cache status",
		Args:  cobra.NoArgs,
		RunE:  runLsCmd,
	}
}

func runLsCmd(cmd *cobra.Command, _ []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	profiles, err := device.Discover(rootDumpDir, rootMemoryBits)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No devices found.")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	fmt.Fprintf(out, "%-24s %8s %8s\n", "Device", "Dumps", "Cached")
	for _, profile := range profiles {
		cached, err := st.Exists(ctx, profile.Name)
		if err != nil {
			return fmt.Errorf("failed to probe cache for %s: %w", profile.Name, err)
		}
		mark := "no"
		if cached {
			mark = "yes"
		}
		fmt.Fprintf(out, "%-24s %8d %8s\n", profile.Name, profile.Dumps(), mark)
	}
	return nil
}

func newBitmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bitmap [devices...]",
		Short: "Render cached statistics as grayscale bitmaps",
		RunE:  runBitmapCmd,
	}
	cmd.Flags().BoolVar(&bitmapEntropy, "entropy", false, "render per-bit entropy")
	cmd.Flags().BoolVar(&bitmapProbability, "probability", false, "render per-bit probability of one")
	cmd.Flags().BoolVar(&bitmapCumulative, "cumulative", false, "average the maps of all named devices into one image")
	cmd.Flags().StringVar(&bitmapRes, "res", "", "bitmap resolution as WxH (default: width 256)")
	cmd.Flags().StringVar(&bitmapOut, "out", "", "output PNG path (default: <device>-<stat>.png)")
	cmd.Flags().BoolVar(&bitmapPreview, "preview", false, "print a terminal heatmap instead of writing a PNG")
	return cmd
}

func runBitmapCmd(cmd *cobra.Command, args []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	if bitmapEntropy == bitmapProbability {
		return fmt.Errorf("specify exactly one of --entropy or --probability")
	}
	if len(args) == 0 {
		return fmt.Errorf("at least one device name is required")
	}
	width, height, err := resolveResolution(bitmapRes, rootMemoryBits)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	statName := "probability"
	if bitmapEntropy {
		statName = "entropy"
	}

	if bitmapCumulative {
		maps := make([][]float64, 0, len(args))
		for _, name := range args {
			values, err := loadStatValues(ctx, st, name, bitmapEntropy)
			if err != nil {
				return err
			}
			maps = append(maps, values)
		}
		mean, err := bitmap.Mean(maps)
		if err != nil {
			return err
		}
		out := bitmapOut
		if out == "" {
			out = fmt.Sprintf("cumulative-%s.png", statName)
		}
		return writeMap(cmd, mean, width, height, out)
	}

	for _, name := range args {
		values, err := loadStatValues(ctx, st, name, bitmapEntropy)
		if err != nil {
			return err
		}
		out := bitmapOut
		if out == "" {
			out = fmt.Sprintf("%s-%s.png", name, statName)
		} else if len(args) > 1 {
			out = fmt.Sprintf("%s-%s", name, bitmapOut)
		}
		if err := writeMap(cmd, values, width, height, out); err != nil {
			return err
		}
	}
	return nil
}

func writeMap(cmd *cobra.Command, values []float64, width, height int, out string) error {
	if bitmapPreview {
		rendered, err := heatmap.Render(values, width, height, 0)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
		return err
	}
	img, err := bitmap.Grayscale(values, width, height)
	if err != nil {
		return err
	}
	if err := bitmap.WritePNG(out, img); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}

func loadStatValues(ctx context.Context, st *store.Store, name string, entropy bool) ([]float64, error) {
	stats, err := analyze.Statistics(ctx, st, name)
	if err != nil {
		return nil, err
	}
	if entropy {
		return stats.Entropy, nil
	}
	return stats.Probability, nil
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff DEVICE [DEVICE2]",
		Short: "Render the differing bits between two power-cycle dumps",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runDiffCmd,
	}
	cmd.Flags().StringVar(&diffDumps, "dumps", "", "dump indices as A,B (default: two random dumps)")
	cmd.Flags().StringVar(&diffRes, "res", "", "bitmap resolution as WxH (default: width 256)")
	cmd.Flags().StringVar(&diffOut, "out", "diff.png", "output PNG path")
	return cmd
}

func runDiffCmd(cmd *cobra.Command, args []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	width, height, err := resolveResolution(diffRes, rootMemoryBits)
	if err != nil {
		return err
	}
	first, second, err := selectDumpPair(args, diffDumps)
	if err != nil {
		return err
	}
	dumpA, err := hexdump.ParseFile(first, rootMemoryBits)
	if err != nil {
		return err
	}
	dumpB, err := hexdump.ParseFile(second, rootMemoryBits)
	if err != nil {
		return err
	}
	img, differing, err := bitmap.Diff(dumpA, dumpB, width, height)
	if err != nil {
		return err
	}
	if err := bitmap.WritePNG(diffOut, img); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Compared %s and %s\n", first, second)
	fmt.Fprintf(out, "Total number of different bits: %d (%.4f%%)\n",
		differing, float64(differing)/float64(dumpA.Bits())*100)
	fmt.Fprintf(out, "Wrote %s\n", diffOut)
	return nil
}

func newHammingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hamming DEVICE [DEVICE2]",
		Short: "Average Hamming distance between two random power-cycle dumps",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runHammingCmd,
	}
}

func runHammingCmd(cmd *cobra.Command, args []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	first, second, err := selectDumpPair(args, "")
	if err != nil {
		return err
	}
	dumpA, err := hexdump.ParseFile(first, rootMemoryBits)
	if err != nil {
		return err
	}
	dumpB, err := hexdump.ParseFile(second, rootMemoryBits)
	if err != nil {
		return err
	}
	distance, err := bitstat.HammingDistance(dumpA, dumpB)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Compared %s and %s\n", first, second)
	fmt.Fprintf(out, "Hamming distance: %d of %d bits (%.4f%%)\n",
		distance, dumpA.Bits(), float64(distance)/float64(dumpA.Bits())*100)
	return nil
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse cached statistics maps interactively",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	cmd.Flags().IntVar(&viewMapWidth, "map-width", defaultMapWidth, "bitmap row width in bits")
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	if err := loadFileConfig(cmd.Root()); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	model := viewer.NewModel(st, viewMapWidth)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func resolveDevices(names []string) ([]model.DeviceProfile, error) {
	if len(names) == 0 {
		return device.Discover(rootDumpDir, rootMemoryBits)
	}
	profiles := make([]model.DeviceProfile, 0, len(names))
	for _, name := range names {
		profile, err := device.Find(rootDumpDir, name, rootMemoryBits)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// selectDumpPair picks two dump files to compare. One device yields two
// distinct dumps of it; two devices yield one dump of each. Explicit indices
// override the random pick.
func selectDumpPair(names []string, indices string) (string, string, error) {
	if len(names) == 1 {
		profile, err := device.Find(rootDumpDir, names[0], rootMemoryBits)
		if err != nil {
			return "", "", err
		}
		if profile.Dumps() < 2 {
			return "", "", fmt.Errorf("device %s has %d dumps, need at least 2", profile.Name, profile.Dumps())
		}
		i, j, err := resolveIndices(indices, profile.Dumps(), profile.Dumps())
		if err != nil {
			return "", "", err
		}
		if i == j {
			return "", "", fmt.Errorf("--dumps must name two distinct dumps")
		}
		return profile.DumpPaths[i], profile.DumpPaths[j], nil
	}

	profileA, err := device.Find(rootDumpDir, names[0], rootMemoryBits)
	if err != nil {
		return "", "", err
	}
	profileB, err := device.Find(rootDumpDir, names[1], rootMemoryBits)
	if err != nil {
		return "", "", err
	}
	if profileA.Dumps() == 0 || profileB.Dumps() == 0 {
		return "", "", fmt.Errorf("both devices need at least one dump")
	}
	i, j, err := resolveIndices(indices, profileA.Dumps(), profileB.Dumps())
	if err != nil {
		return "", "", err
	}
	return profileA.DumpPaths[i], profileB.DumpPaths[j], nil
}

func resolveIndices(indices string, limitA, limitB int) (int, int, error) {
	if indices == "" {
		i := rand.Intn(limitA)
		j := rand.Intn(limitB)
		// Same-device selection re-rolls until the dumps differ.
		for limitA == limitB && limitA > 1 && i == j {
			j = rand.Intn(limitB)
		}
		return i, j, nil
	}
	first, second, ok := strings.Cut(indices, ",")
	if !ok {
		return 0, 0, fmt.Errorf("--dumps must be two comma-separated indices")
	}
	i, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dump index %q", first)
	}
	j, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dump index %q", second)
	}
	if i < 0 || i >= limitA || j < 0 || j >= limitB {
		return 0, 0, fmt.Errorf("dump indices out of range (0-%d, 0-%d)", limitA-1, limitB-1)
	}
	return i, j, nil
}

// resolveResolution parses WxH, falling back to config values and then to a
// fixed-width layout covering the declared memory size.
func resolveResolution(res string, memoryBits int) (int, int, error) {
	width := 0
	height := 0
	if res != "" {
		first, second, ok := strings.Cut(res, "x")
		if !ok {
			return 0, 0, fmt.Errorf("--res must be WxH, e.g. 256x384")
		}
		var err error
		if width, err = strconv.Atoi(strings.TrimSpace(first)); err != nil {
			return 0, 0, fmt.Errorf("invalid resolution width %q", first)
		}
		if height, err = strconv.Atoi(strings.TrimSpace(second)); err != nil {
			return 0, 0, fmt.Errorf("invalid resolution height %q", second)
		}
	} else {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return 0, 0, err
		}
		if fileCfg.Bitmap.Width != nil {
			width = *fileCfg.Bitmap.Width
		}
		if fileCfg.Bitmap.Height != nil {
			height = *fileCfg.Bitmap.Height
		}
		if width == 0 && height == 0 {
			width = defaultMapWidth
			if memoryBits%width != 0 {
				return 0, 0, fmt.Errorf("memory size %d bits does not fold into width %d; pass --res", memoryBits, width)
			}
			height = memoryBits / width
		}
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	if width*height != memoryBits {
		return 0, 0, fmt.Errorf("resolution %dx%d does not cover the %d-bit memory", width, height, memoryBits)
	}
	return width, height, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.PersistentFlags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.PersistentFlags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# sramscan configuration
# Uncomment a value to enable it. CLI flags override config values.

[scan]
# dump-dir = "."          # Directory holding <device>.dev dump directories
# memory-bits = %d     # Declared SRAM size per device in bits

[bitmap]
# width = %d             # Default bitmap width in pixels
# height = %d            # Default bitmap height in pixels
`,
		defaultMemoryBits,
		defaultMapWidth,
		defaultMemoryBits/defaultMapWidth,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
