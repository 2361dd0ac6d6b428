package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/nestile"
	nesimage "github.com/bodgit/nestile/image"
	"github.com/bodgit/nestile/ines"
	"github.com/bodgit/nestile/palette"
	"github.com/bodgit/nestile/tile"
	"github.com/goccy/go-json"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/urfave/cli/v2"
)

const defaultDB = "nestile.db"

var (
	version = "1.0.0"
	commit  = ""
	date    = ""
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newParser(c *cli.Context, logger *log.Logger) (*ines.Parser, error) {
	return ines.NewParser(c.Int("bank-size"), logger)
}

func parseColors(s string) ([tile.Colors]uint8, error) {
	var idx [tile.Colors]uint8
	fields := strings.Split(s, ",")
	if len(fields) != tile.Colors {
		return idx, fmt.Errorf("need %d colors, got '%s'", tile.Colors, s)
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 16, 8)
		if err != nil {
			return idx, fmt.Errorf("parsing color '%s': %w", f, err)
		}
		idx[i] = uint8(v)
	}
	return idx, nil
}

func loadPalette(c *cli.Context) (color.Palette, error) {
	master := palette.NES
	if file := c.String("palette"); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := master.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("reading palette '%s': %w", file, err)
		}
	}

	idx, err := parseColors(c.String("colors"))
	if err != nil {
		return nil, err
	}

	return master.Sub(idx[0], idx[1], idx[2], idx[3])
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

type infoOutput struct {
	File string `json:"file"`
	CRC  string `json:"crc"`
	ines.Info
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	p, err := newParser(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, file := range c.Args().Slice() {
		b, err := os.ReadFile(file)
		if err != nil {
			return cli.Exit(err, 1)
		}

		h, err := ines.ParseHeader(b)
		if err != nil {
			return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
		}

		i, err := p.Inspect(b)
		if err != nil {
			return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
		}

		crc, err := nestile.CRC(b)
		if err != nil {
			return cli.Exit(err, 1)
		}

		if c.Bool("json") {
			if err := printJSON(infoOutput{File: file, CRC: crc, Info: *i}); err != nil {
				return cli.Exit(err, 1)
			}
			continue
		}

		fmt.Printf("%s: %s\n", file, h)
		fmt.Printf("  crc %s, submapper %d, battery %t, trainer %t\n", crc, i.Submapper, i.Battery, i.Trainer)
		fmt.Printf("  chr %s, %d banks of %d bytes", i.CHRStorage, i.BankCount, i.BankSize)
		if i.TrailingBytes > 0 {
			fmt.Printf(", %d trailing bytes", i.TrailingBytes)
		}
		fmt.Println()
	}

	return nil
}

func extract(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	p, err := newParser(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	n := nestile.New(nil, p, logger)

	b, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	d, err := n.OpenFromContainer(b, c.Int("bank"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	out := c.Args().Get(1)
	if err := d.ExportStandalone(nestile.FileSink(out)).Save(); err != nil {
		return cli.Exit(err, 1)
	}
	logger.Printf("Wrote %d tiles to \"%s\"\n", d.TileCount(), out)

	return nil
}

func render(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	pal, err := loadPalette(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	o := &nesimage.Options{
		Palette: pal,
		Columns: c.Int("columns"),
	}

	b, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	var m image.Image
	if _, err := ines.ParseHeader(b); err == nil {
		p, err := newParser(c, logger)
		if err != nil {
			return cli.Exit(err, 1)
		}
		d, err := nestile.New(nil, p, logger).OpenFromContainer(b, c.Int("bank"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if m, err = nesimage.Render(d.Tiles(), o); err != nil {
			return cli.Exit(err, 1)
		}
	} else if m, err = nesimage.Decode(bytes.NewReader(b), o); err != nil {
		return cli.Exit(err, 1)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, m); err != nil {
		return cli.Exit(err, 1)
	}

	out := c.Args().Get(1)
	if err := nestile.FileSink(out).Store(buf.Bytes()); err != nil {
		return cli.Exit(err, 1)
	}
	logger.Printf("Rendered %dx%d image to \"%s\"\n", m.Bounds().Dx(), m.Bounds().Dy(), out)

	return nil
}

func importImage(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	f, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return cli.Exit(err, 1)
	}

	out := c.Args().Get(1)

	if !c.IsSet("at") {
		buf := new(bytes.Buffer)
		if err := nesimage.Encode(buf, m); err != nil {
			return cli.Exit(err, 1)
		}
		if err := nestile.FileSink(out).Store(buf.Bytes()); err != nil {
			return cli.Exit(err, 1)
		}
		logger.Printf("Wrote %d tiles to \"%s\"\n", buf.Len()/tile.Size, out)
		return nil
	}

	// Patch the tiles into an existing file
	tiles, err := nesimage.Tiles(m)
	if err != nil {
		return cli.Exit(err, 1)
	}

	d, err := nestile.OpenFile(out)
	if err != nil {
		return cli.Exit(err, 1)
	}

	at := c.Int("at")
	for i, t := range tiles {
		if err := d.SetTile(at+i, t); err != nil {
			return cli.Exit(fmt.Errorf("tile %d: %w", at+i, err), 1)
		}
	}

	if err := d.Save(); err != nil {
		return cli.Exit(err, 1)
	}
	logger.Printf("Replaced tiles %d-%d in \"%s\"\n", at, at+len(tiles)-1, out)

	return nil
}

func sample(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	var b []byte
	switch kind := c.Args().Get(0); kind {
	case "chr":
		b = nestile.SampleCHR()
	case "nes":
		b = nestile.SampleROM()
	default:
		return cli.Exit(fmt.Errorf("unknown sample '%s', expected chr or nes", kind), 1)
	}

	if err := nestile.FileSink(c.Args().Get(1)).Store(b); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func scan(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	db, err := nestile.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	p, err := newParser(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := nestile.New(db, p, logger).Scan(c.Args().First()); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func lookup(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	db, err := nestile.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	crc := strings.ToUpper(c.Args().First())

	if out := c.String("output"); out != "" {
		b, err := db.Bank(crc, c.Int("bank"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if b == nil {
			return cli.Exit(fmt.Errorf("no bank %d for '%s'", c.Int("bank"), crc), 1)
		}
		d, err := nestile.OpenStandalone(b, nestile.FileSink(out))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := d.Save(); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}

	e, err := db.Lookup(crc)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if e == nil {
		return cli.Exit(fmt.Errorf("no image with CRC '%s'", crc), 1)
	}

	if c.Bool("json") {
		if err := printJSON(e); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}

	fmt.Printf("%s: %s, mapper %d, prg %d, chr %d (%s), %d banks of %d bytes\n",
		e.Name, e.Info.Format, e.Info.Mapper, e.Info.PRGSize, e.Info.CHRSize, e.Info.CHRStorage, e.Info.BankCount, e.Info.BankSize)

	return nil
}

func list(c *cli.Context) error {
	db, err := nestile.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	entries, err := db.List()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("json") {
		if err := printJSON(entries); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.CRC, e.Name)
	}

	banks, err := db.Banks()
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Printf("%d images, %d distinct banks\n", len(entries), banks)

	return nil
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "print JSON",
	}
}

func bankFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "bank",
		Aliases: []string{"b"},
		Usage:   "bank index",
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "nestile"
	app.Usage = "NES tile graphics utility"
	app.Version = buildinfo.Version(version, commit, date)

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"NESTILE_CONFIG"},
			Value:   configPath(),
			Usage:   "path to configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"NESTILE_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.IntFlag{
			Name:    "bank-size",
			EnvVars: []string{"NESTILE_BANK_SIZE"},
			Value:   ines.DefaultBankSize,
			Usage:   "size of CHR banks in bytes",
		},
		&cli.StringFlag{
			Name:    "palette",
			EnvVars: []string{"NESTILE_PALETTE"},
			Usage:   "path to .pal master palette",
		},
		&cli.StringFlag{
			Name:  "colors",
			Value: "00,01,02,03",
			Usage: "master palette entries used for the four tile colors",
		},
		&cli.IntFlag{
			Name:  "columns",
			Value: nesimage.DefaultColumns,
			Usage: "tiles per row when rendering",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Before = func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
		if err != nil {
			return err
		}
		return cfg.apply(c)
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show cartridge header details",
			ArgsUsage: "FILE...",
			Flags:     []cli.Flag{jsonFlag()},
			Action:    info,
		},
		{
			Name:      "extract",
			Usage:     "Extract a CHR bank from a cartridge to a tile file",
			ArgsUsage: "FILE OUTPUT",
			Flags:     []cli.Flag{bankFlag()},
			Action:    extract,
		},
		{
			Name:      "render",
			Usage:     "Render tiles from a cartridge or tile file to PNG",
			ArgsUsage: "FILE OUTPUT",
			Flags:     []cli.Flag{bankFlag()},
			Action:    render,
		},
		{
			Name:      "import",
			Usage:     "Convert an image to tiles",
			ArgsUsage: "IMAGE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "at",
					Usage: "replace tiles in an existing tile file starting at this index",
				},
			},
			Action: importImage,
		},
		{
			Name:      "sample",
			Usage:     "Write a sample tile file or cartridge",
			ArgsUsage: "chr|nes OUTPUT",
			Action:    sample,
		},
		{
			Name:      "scan",
			Usage:     "Scan filesystem and catalog cartridge images",
			ArgsUsage: "DIRECTORY",
			Action:    scan,
		},
		{
			Name:      "lookup",
			Usage:     "Show a cataloged image or write one of its banks",
			ArgsUsage: "CRC",
			Flags: []cli.Flag{
				jsonFlag(),
				bankFlag(),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write the bank to this file",
				},
			},
			Action: lookup,
		},
		{
			Name:   "list",
			Usage:  "List cataloged images",
			Flags:  []cli.Flag{jsonFlag()},
			Action: list,
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
