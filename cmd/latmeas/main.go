// Command latmeas inspects, post-processes, and archives measurement
// container files produced by HMC runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/latmeas/latmeas"
	"github.com/latmeas/latmeas/blobstore"
	storeminio "github.com/latmeas/latmeas/blobstore/minio"
	"github.com/latmeas/latmeas/container"
	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/meas"
)

var cli struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Inspect  InspectCmd  `cmd:"" help:"Show the group and dataset tree of a measurement file"`
	Export   ExportCmd   `cmd:"" help:"Dump one dataset as JSON"`
	Complete CompleteCmd `cmd:"" help:"Derive rho, N, and S3 from measured one-point functions"`
	Push     PushCmd     `cmd:"" help:"Archive a measurement file to a blob store"`
	Pull     PullCmd     `cmd:"" help:"Fetch a measurement file from a blob store"`
}

func main() {
	// Archive credentials may live in a .env next to the run scripts.
	_ = godotenv.Load()

	ctx := kong.Parse(&cli,
		kong.Name("latmeas"),
		kong.Description("Measurement file tooling for lattice HMC runs."),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(latmeas.NewTextLogger(level).Logger)

	if err := ctx.Run(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// InspectCmd prints the container tree.
type InspectCmd struct {
	File string `arg:"" help:"Measurement file to inspect"`
}

func (c *InspectCmd) Run() error {
	f, err := container.ReadFile(c.File)
	if err != nil {
		return err
	}
	printGroup(f.Root(), 0)
	return nil
}

func printGroup(g *container.Group, depth int) {
	indent := strings.Repeat("  ", depth)
	name := g.Name()
	if name == "" {
		name = "/"
	}
	fmt.Printf("%s%s\n", indent, name)
	for _, k := range g.AttrKeys() {
		v, _ := g.Attr(k)
		fmt.Printf("%s  @%s = %q\n", indent, k, v)
	}
	for _, ds := range g.Datasets() {
		if ds.Empty {
			fmt.Printf("%s  %s: %s (empty)\n", indent, ds.Name, ds.DType)
			continue
		}
		fmt.Printf("%s  %s: %s %v\n", indent, ds.Name, ds.DType, ds.Shape)
	}
	for _, child := range g.Children() {
		printGroup(child, depth+1)
	}
}

// ExportCmd dumps one dataset as JSON. Complex values are emitted as
// [re, im] pairs.
type ExportCmd struct {
	File    string `arg:"" help:"Measurement file"`
	Group   string `arg:"" help:"Group path, e.g. monte_carlo/totalPhi"`
	Dataset string `arg:"" help:"Dataset name, e.g. Phi"`
}

func (c *ExportCmd) Run() error {
	f, err := container.ReadFile(c.File)
	if err != nil {
		return err
	}
	g, err := f.Group(c.Group)
	if err != nil {
		return err
	}
	ds, err := g.Dataset(c.Dataset)
	if err != nil {
		return err
	}

	var payload any
	switch {
	case ds.Empty:
		payload = nil
	case ds.DType == container.DTypeBool:
		payload = ds.Bools
	case ds.DType == container.DTypeFloat64:
		payload = ds.Floats
	case ds.DType == container.DTypeComplex128:
		pairs := make([][2]float64, len(ds.Complexes))
		for i, v := range ds.Complexes {
			pairs[i] = [2]float64{real(v), imag(v)}
		}
		payload = pairs
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"group":   c.Group,
		"dataset": c.Dataset,
		"dtype":   ds.DType.String(),
		"shape":   ds.Shape,
		"empty":   ds.Empty,
		"values":  payload,
	})
}

// CompleteCmd derives the remaining one-point functions from np and nh and
// writes them back into the same group.
type CompleteCmd struct {
	File  string `arg:"" help:"Measurement file"`
	Group string `arg:"" optional:"" default:"correlation_functions/one_point" help:"One-point group path"`
	Out   string `short:"o" help:"Output file (defaults to in-place)"`
}

func (c *CompleteCmd) Run() error {
	f, err := container.ReadFile(c.File)
	if err != nil {
		return err
	}
	g, err := f.Group(c.Group)
	if err != nil {
		return err
	}

	measured := make(map[string]*history.ComplexSeries)
	for _, field := range meas.OnePointFields {
		ds, err := g.Dataset(field)
		if err != nil {
			return err
		}
		s := history.NewComplexArraySeriesDeferred()
		if len(ds.Shape) < 1 {
			return fmt.Errorf("dataset %s has no sample axis", field)
		}
		if err := s.ResetArray(append([]complex128(nil), ds.Complexes...), ds.Shape[0], ds.Shape[1:]); err != nil {
			return err
		}
		measured[field] = s
	}

	completed, err := meas.Complete(measured)
	if err != nil {
		return err
	}
	for _, name := range []string{"rho", "N", "S3"} {
		s := completed[name]
		shape := append([]int{s.Len()}, s.SampleShape()...)
		if err := g.SetComplexes(name, shape, s.Values()); err != nil {
			return err
		}
	}

	out := c.Out
	if out == "" {
		out = c.File
	}
	slog.Info("writing completed one-point functions", "file", out, "group", c.Group)
	return f.WriteFile(out, container.CompressionLZ4)
}

// storeFlags selects and configures the archive backend shared by push/pull.
type storeFlags struct {
	Dir      string `help:"Local archive directory (mutually exclusive with --endpoint)"`
	Endpoint string `env:"LATMEAS_S3_ENDPOINT" help:"S3-compatible endpoint"`
	Bucket   string `env:"LATMEAS_S3_BUCKET" help:"Archive bucket"`
	Prefix   string `env:"LATMEAS_S3_PREFIX" default:"measurements" help:"Key prefix within the bucket"`
	Insecure bool   `help:"Disable TLS for the S3 endpoint"`
}

func (s *storeFlags) open() (blobstore.Store, error) {
	if s.Dir != "" {
		return blobstore.NewLocalStore(s.Dir), nil
	}
	if s.Endpoint == "" {
		return nil, fmt.Errorf("either --dir or --endpoint (LATMEAS_S3_ENDPOINT) is required")
	}
	client, err := miniogo.New(s.Endpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4(
			os.Getenv("LATMEAS_S3_ACCESS_KEY"),
			os.Getenv("LATMEAS_S3_SECRET_KEY"),
			"",
		),
		Secure: !s.Insecure,
	})
	if err != nil {
		return nil, err
	}
	return storeminio.NewStore(client, s.Bucket, s.Prefix), nil
}

// PushCmd uploads a measurement file to the archive.
type PushCmd struct {
	storeFlags
	File string `arg:"" help:"Measurement file to upload"`
	Name string `help:"Archive key (defaults to the file name)"`
}

func (c *PushCmd) Run() error {
	store, err := c.open()
	if err != nil {
		return err
	}
	// Validate before uploading; a truncated file should fail here, not
	// during later analysis.
	if _, err := container.ReadFile(c.File); err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = baseName(c.File)
	}
	if err := store.Put(context.Background(), name, data); err != nil {
		return err
	}
	slog.Info("archived measurement file", "name", name, "bytes", len(data))
	return nil
}

// PullCmd downloads a measurement file from the archive.
type PullCmd struct {
	storeFlags
	Name string `arg:"" help:"Archive key to fetch"`
	Out  string `short:"o" help:"Output path (defaults to the key's base name)"`
}

func (c *PullCmd) Run() error {
	store, err := c.open()
	if err != nil {
		return err
	}
	data, err := store.Get(context.Background(), c.Name)
	if err != nil {
		return err
	}
	out := c.Out
	if out == "" {
		out = baseName(c.Name)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	slog.Info("fetched measurement file", "name", c.Name, "out", out, "bytes", len(data))
	return nil
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
