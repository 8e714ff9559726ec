package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dicomstack/pkg/config"
	"dicomstack/pkg/decoder"
	"dicomstack/pkg/export"
	"dicomstack/pkg/metadata"
	"dicomstack/pkg/ordering"
	"dicomstack/pkg/source"
	"dicomstack/pkg/validation"
	"dicomstack/pkg/visualization"
	"dicomstack/pkg/volume"
)

const usage = `usage: dicomstack <command> [flags]

commands:
  assemble     stack the sources into one volume and report its geometry
  export       write every frame of every source as a raster image
  inspect      print the header tags of a single source
  init-config  write a default configuration file
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "assemble":
		return runAssemble(args[1:], stdout)
	case "export":
		return runExport(args[1:], stdout)
	case "inspect":
		return runInspect(args[1:], stdout)
	case "init-config":
		return runInitConfig(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

// commonFlags are shared by the assemble and export commands and override
// values from the config file
type commonFlags struct {
	configPath string
	input      string
	outputDir  string
	format     string
	policy     string
	extensions string
	quiet      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "dicomstack.yaml", "path to YAML configuration file")
	fs.StringVar(&c.input, "input", "", "source file or directory (overrides config)")
	fs.StringVar(&c.outputDir, "output", "", "output directory (overrides config)")
	fs.StringVar(&c.format, "format", "", "raster format: png, jpeg or tiff (overrides config)")
	fs.StringVar(&c.policy, "order", "", "slice ordering: lexicographic, natural or position (overrides config)")
	fs.StringVar(&c.extensions, "ext", "", "comma-separated source extensions (overrides config)")
	fs.BoolVar(&c.quiet, "quiet", false, "suppress progress output")
}

// load merges the config file with flag overrides
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.input != "" {
		cfg.Input.Path = c.input
	}
	if c.outputDir != "" {
		cfg.Output.Dir = c.outputDir
	}
	if c.format != "" {
		cfg.Output.Format = c.format
	}
	if c.policy != "" {
		cfg.Ordering.Policy = c.policy
	}
	if c.extensions != "" {
		cfg.Input.Extensions = strings.Split(c.extensions, ",")
	}
	if c.quiet {
		cfg.Output.Verbose = false
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	if !cfg.Output.Verbose {
		return nil
	}
	return log.New(w, "", 0)
}

func runAssemble(args []string, stdout io.Writer) error {
	var flags commonFlags
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	flags.register(fs)
	extractSlices := fs.Bool("extract-slices", false, "save orthogonal slices of the assembled volume along all axes")
	slicesDir := fs.String("slices-dir", "volume_slices", "directory, under the output directory, for extracted slices")
	regionSpec := fs.String("region", "", "report intensity of the sub-volume x,y,z,width,height,depth")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var region []int
	if *regionSpec != "" {
		var err error
		if region, err = parseRegion(*regionSpec); err != nil {
			return err
		}
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stdout)

	policy, err := ordering.ByName(cfg.Ordering.Policy, metadata.NewReader())
	if err != nil {
		return err
	}

	assembler := volume.NewAssembler(&volume.Params{
		Decoder: decoder.DefaultRegistry(),
		Policy:  policy,
		Logger:  logger,
	})

	fmt.Fprintf(stdout, "Assembling volume from %s...\n", cfg.Input.Path)
	startTime := time.Now()
	vol, err := assembler.AssembleDir(cfg.Input.Path, cfg.Input.Extensions)
	if err != nil {
		return describe(err)
	}

	summary := volume.Summarize(vol)
	fmt.Fprintf(stdout, "\nVolume assembled in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Fprintf(stdout, "Shape (z, y, x): %d x %d x %d\n", vol.Depth, vol.Height, vol.Width)
	fmt.Fprintf(stdout, "Sample type:     %s\n", vol.DType)
	fmt.Fprintf(stdout, "Intensity:       min %.0f, max %.0f, mean %.2f, std %.2f\n",
		summary.Min, summary.Max, summary.Mean, summary.StdDev)

	viewer := visualization.NewViewer(vol)
	if region != nil {
		samples, err := viewer.ExtractRegion(region[0], region[1], region[2], region[3], region[4], region[5])
		if err != nil {
			return fmt.Errorf("region %s: %w", *regionSpec, err)
		}
		rs := volume.SummarizeSamples(samples)
		fmt.Fprintf(stdout, "Region %s:  min %.0f, max %.0f, mean %.2f, std %.2f\n",
			*regionSpec, rs.Min, rs.Max, rs.Mean, rs.StdDev)
	}

	if !*extractSlices {
		return nil
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	slicesPath := filepath.Join(cfg.Output.Dir, *slicesDir)
	for _, axis := range []string{"x", "y", "z"} {
		axisDir := filepath.Join(slicesPath, axis)
		fmt.Fprintf(stdout, "Saving %s-axis slices to: %s\n", axis, axisDir)
		if _, err := viewer.SaveSliceSequence(axis, axisDir, format); err != nil {
			log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
		}
	}
	return nil
}

func runExport(args []string, stdout io.Writer) error {
	var flags commonFlags
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	sources, err := source.Discover(cfg.Input.Path, cfg.Input.Extensions)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintf(stdout, "No source files found in: %s\n", cfg.Input.Path)
		return nil
	}

	exporter := export.NewExporter(decoder.DefaultRegistry(), format, newLogger(cfg, stdout))
	manifest, err := exporter.ExportAll(source.Paths(sources), cfg.Output.Dir)
	if err != nil {
		// per-frame failures are warnings, the batch still succeeded
		log.Printf("Warning: some frames were not exported: %v", err)
	}
	fmt.Fprintf(stdout, "Exported %d frames from %d sources to %s\n",
		len(manifest.Entries), len(sources), cfg.Output.Dir)
	return nil
}

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one source file")
	}

	h, err := metadata.Read(fs.Arg(0))
	if err != nil {
		return err
	}
	return h.Render(stdout)
}

func runInitConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	path := fs.String("config", "dicomstack.yaml", "path of the configuration file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.CreateDefaultConfigFile(*path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote default configuration to %s\n", *path)
	return nil
}

// parseRegion reads "x,y,z,width,height,depth"
func parseRegion(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("region %q: want x,y,z,width,height,depth", spec)
	}
	region := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", spec, err)
		}
		region[i] = n
	}
	return region, nil
}

// describe names the failing source and error kind of an assembly failure
func describe(err error) error {
	var (
		decodeErr   *decoder.DecodeError
		mismatchErr *validation.ShapeMismatchError
		emptyIn     *ordering.EmptyInputError
		emptyVol    *volume.EmptyVolumeError
	)
	switch {
	case errors.As(err, &decodeErr):
		return fmt.Errorf("assembly failed [decode error] at %s: %w", decodeErr.Source, err)
	case errors.As(err, &mismatchErr):
		return fmt.Errorf("assembly failed [shape mismatch] at %s: %w", mismatchErr.Source, err)
	case errors.As(err, &emptyIn):
		return fmt.Errorf("assembly failed [empty input]: %w", err)
	case errors.As(err, &emptyVol):
		return fmt.Errorf("assembly failed [empty volume]: %w", err)
	}
	return fmt.Errorf("assembly failed: %w", err)
}
