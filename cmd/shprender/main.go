// Command shprender renders shapefiles and other vector files to images,
// prints file summaries and converts between vector formats.
//
//	shprender render -config map.json -o map.png
//	shprender render -shp roads.shp -o roads.tiff -w 1024 -h 768
//	shprender info roads.shp
//	shprender export -to geojson roads.shp roads.geojson
//	shprender import -db attrs.db roads.shp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"geomap/internal/attrdb"
	"geomap/internal/carto"
	"geomap/internal/config"
	"geomap/internal/dbf"
	"geomap/internal/geom"
	"geomap/internal/projection"
	"geomap/internal/render"
	"geomap/internal/source"
)

const usage = `usage: shprender <command> [flags]

commands:
  render   draw a map document or a single file to png/tiff
  info     print header, extents and fields of a file
  export   convert a file to geojson, fgb or shp
  import   copy a shapefile's attribute table into a sqlite database
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "render":
		return runRender(rest)
	case "info":
		return runInfo(rest, stdout)
	case "export":
		return runExport(rest)
	case "import":
		return runImport(rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func newFlagSet(name string, verbose *bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.BoolVar(verbose, "v", false, "debug logging")
	return fs
}

func setVerbose(v bool) {
	if v {
		log.SetLevel(log.DebugLevel)
	}
}

func runRender(args []string) error {
	var verbose bool
	fs := newFlagSet("render", &verbose)
	cfgPath := fs.String("config", "", "map document (json)")
	shp := fs.String("shp", "", "single vector file to draw instead of a map document")
	out := fs.String("o", "map.png", "output image")
	format := fs.String("format", "", "png or tiff (default from -o)")
	width := fs.Int("w", 800, "image width with -shp")
	height := fs.Int("h", 600, "image height with -shp")
	proj := fs.String("proj", "", "output projection with -shp, e.g. EPSG:3857")
	smoothing := fs.String("smoothing", "", "high or none (overrides the document)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setVerbose(verbose)

	reg := projection.NewRegistry()
	var (
		m       *carto.Map
		closeFn = func() error { return nil }
		opts    render.Options
		err     error
	)
	switch {
	case *cfgPath != "":
		doc, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		if opts, err = doc.RenderOptions(log.StandardLogger()); err != nil {
			return err
		}
		if m, closeFn, err = doc.Build(reg); err != nil {
			return err
		}
	case *shp != "":
		if m, err = fileMap(*shp, *width, *height, *proj, reg); err != nil {
			return err
		}
		opts.Logger = log.StandardLogger()
	default:
		return errors.New("render: need -config or -shp")
	}
	defer closeFn()

	if *smoothing != "" {
		if opts.Smoothing, err = render.ParseSmoothing(*smoothing); err != nil {
			return err
		}
	}

	img, err := render.New(reg, opts).Draw(context.Background(), m)
	if err != nil {
		return err
	}

	if *format == "" {
		*format = render.FormatFromPath(*out)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := render.Encode(f, img, *format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": *out, "layers": len(m.Layers), "size": fmt.Sprintf("%dx%d", m.Width, m.Height)}).Info("map rendered")
	return nil
}

// fileMap builds a map of one file with the default symbol, framed on its
// extents.
func fileMap(path string, w, h int, proj string, svc projection.Service) (*carto.Map, error) {
	doc := &config.Document{
		Width:      w,
		Height:     h,
		Projection: proj,
		Layers:     []config.LayerDoc{{Path: path}},
	}
	m, _, err := doc.Build(svc)
	if err != nil {
		return nil, err
	}
	m.Background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	for _, l := range m.Layers {
		log.WithFields(log.Fields{"layer": l.ID, "kind": kindName(l.Data.Kind())}).Debug("layer loaded")
	}
	return m, nil
}

func runInfo(args []string, stdout io.Writer) error {
	var verbose bool
	fs := newFlagSet("info", &verbose)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setVerbose(verbose)
	if fs.NArg() != 1 {
		return errors.New("info: need exactly one file")
	}
	ds, err := source.Open(fs.Arg(0))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", ds.Path)
	fmt.Fprintf(tw, "format\t%s\n", ds.Format)
	if ds.Header != nil {
		fmt.Fprintf(tw, "shape type\t%s\n", ds.Header.ShapeType)
		fmt.Fprintf(tw, "file length\t%d words\n", ds.Header.FileLength)
	}
	for _, s := range ds.Sources {
		fmt.Fprintf(tw, "%s features\t%d\n", kindName(s.Kind()), s.Len())
	}
	if ext, ok := ds.Extents(); ok {
		fmt.Fprintf(tw, "extents\t%g %g %g %g\n", ext.Min.X, ext.Min.Y, ext.Max.X, ext.Max.Y)
	}
	if ds.Projection != "" {
		p := ds.Projection
		if len(p) > 60 {
			p = p[:57] + "..."
		}
		fmt.Fprintf(tw, "projection\t%s\n", p)
	}
	if len(ds.Fields) > 0 {
		fmt.Fprintf(tw, "fields\t%s\n", strings.Join(ds.Fields, ", "))
	}
	return tw.Flush()
}

func runExport(args []string) error {
	var verbose bool
	fs := newFlagSet("export", &verbose)
	to := fs.String("to", "geojson", "geojson, fgb or shp")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setVerbose(verbose)
	if fs.NArg() != 2 {
		return errors.New("export: need input and output paths")
	}
	in, out := fs.Arg(0), fs.Arg(1)
	ds, err := source.Open(in)
	if err != nil {
		return err
	}
	features := ds.Features()

	switch *to {
	case "geojson":
		err = writeTo(out, func(w io.Writer) error {
			return source.WriteGeoJSON(w, features, ds.Attributes, ds.Fields)
		})
	case "fgb":
		err = writeTo(out, func(w io.Writer) error {
			return source.WriteFlatGeobuf(w, ds.Name, features, ds.Attributes, ds.Fields, ds.Projection)
		})
	case "shp":
		err = exportShapefile(ds, out)
	default:
		return fmt.Errorf("export: unknown format %q", *to)
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"from": in, "to": out, "features": len(features)}).Info("exported")
	return nil
}

// exportShapefile writes one shapefile per geometry kind, since a shapefile
// holds a single kind. With several kinds the kind is appended to the name.
func exportShapefile(ds *source.Dataset, out string) error {
	stem := strings.TrimSuffix(out, filepath.Ext(out))
	for _, s := range ds.Sources {
		name := stem
		if len(ds.Sources) > 1 {
			name = stem + "_" + kindName(s.Kind())
		}
		if err := source.WriteShapefile(name, s.Kind(), s.Features(), ds.Attributes, ds.Fields, ds.Projection); err != nil {
			return err
		}
	}
	return nil
}

func writeTo(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runImport(args []string) error {
	var verbose bool
	fs := newFlagSet("import", &verbose)
	db := fs.String("db", "attributes.db", "sqlite database")
	layer := fs.String("layer", "", "layer name (default: file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setVerbose(verbose)
	if fs.NArg() != 1 {
		return errors.New("import: need one .shp or .dbf file")
	}
	path := fs.Arg(0)
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	tbl, err := dbf.Open(stem + ".dbf")
	if err != nil {
		return err
	}
	name := *layer
	if name == "" {
		name = filepath.Base(stem)
	}

	store, err := attrdb.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Import(name, tbl); err != nil {
		return err
	}
	log.WithFields(log.Fields{"layer": name, "rows": tbl.Len(), "db": *db}).Info("attributes imported")
	return nil
}

func kindName(k geom.Kind) string { return strings.ToLower(k.String()) }
