// Package cmd implements the command-line interface, the stand-in for a
// cataloguing host driving the metadata source.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/otapi/antikvarium/internal/antikvarium"
	"github.com/otapi/antikvarium/internal/config"
	"github.com/otapi/antikvarium/internal/metadata"
	"github.com/otapi/antikvarium/internal/source"
	"github.com/otapi/antikvarium/internal/tui"
)

// CLI represents the complete command structure for the antikvarium tool.
type CLI struct {
	// Global flags
	Debug      bool          `help:"Enable debug logging"`
	MaxResults int           `help:"Maximum number of candidate pages to fetch per query" default:"3"`
	Timeout    time.Duration `help:"Per-request network timeout" default:"30s"`

	Identify IdentifyCmd `cmd:"" help:"Look up book metadata on antikvarium.hu"`
	Cover    CoverCmd    `cmd:"" help:"Download a book cover from antikvarium.hu"`
}

// searchFlags are the lookup inputs shared by both commands. Any subset
// may be given; the resolver picks the strategy.
type searchFlags struct {
	Title   string   `short:"t" help:"Book title"`
	Author  []string `short:"a" help:"Author name (repeatable)"`
	ISBN    string   `help:"ISBN-10 or ISBN-13"`
	AntikID string   `name:"antik-id" help:"antikvarium.hu book identifier"`
}

func (f *searchFlags) request() (metadata.SearchRequest, error) {
	if f.Title == "" && len(f.Author) == 0 && f.ISBN == "" && f.AntikID == "" {
		return metadata.SearchRequest{}, fmt.Errorf("at least one of --title, --author, --isbn or --antik-id is required")
	}
	ids := make(map[string]string)
	if f.ISBN != "" {
		ids[metadata.IDKeyISBN] = f.ISBN
	}
	if f.AntikID != "" {
		ids[metadata.IDKeyAntik] = f.AntikID
	}
	return metadata.SearchRequest{
		Title:       f.Title,
		Authors:     f.Author,
		Identifiers: ids,
	}, nil
}

// IdentifyCmd looks up metadata records and prints them as YAML.
type IdentifyCmd struct {
	searchFlags
	Interactive bool `help:"Pick one record interactively instead of printing all"`
}

// CoverCmd downloads the best cover image for a request.
type CoverCmd struct {
	searchFlags
	Output   string `short:"o" help:"Path to write the cover image to" default:"cover.jpg"`
	MaxWidth int    `help:"Resize the cover down to this width (0 keeps the original size)"`
}

var newSource = func() *source.Source {
	client := antikvarium.NewClient(
		antikvarium.WithBaseURL(config.BaseURL),
		antikvarium.WithTimeout(config.RequestTimeout),
		antikvarium.WithUserAgent(config.UserAgent),
	)
	return source.New(source.WithClient(client), source.WithMaxResults(config.MaxResults))
}

// Run executes the identify command.
func (c *IdentifyCmd) Run() error {
	req, err := c.request()
	if err != nil {
		return err
	}

	src := newSource()
	results := make(chan *metadata.Record, 2*config.MaxResults)
	if err := src.Identify(context.Background(), req, results); err != nil {
		return err
	}
	records := drainRecords(results)
	if len(records) == 0 {
		slog.Info("No results")
		return nil
	}

	if c.Interactive {
		selection, err := tui.Select(req.Title, records)
		if err != nil {
			return err
		}
		if selection.Action != tui.ActionSelected {
			return nil
		}
		records = []*metadata.Record{selection.Selection}
	}

	return printRecords(os.Stdout, records)
}

// Run executes the cover command.
func (c *CoverCmd) Run() error {
	req, err := c.request()
	if err != nil {
		return err
	}

	src := newSource()
	out := make(chan source.CoverResult, 1)
	if err := src.DownloadCover(context.Background(), req, out); err != nil {
		return err
	}

	select {
	case cover := <-out:
		return saveCover(cover.Data, c.Output, c.MaxWidth)
	default:
		slog.Info("No cover found")
		return nil
	}
}

// saveCover decodes the downloaded bytes, optionally resizes, and writes
// the image in the format implied by the output extension. Decoding also
// catches the site handing back an error page instead of an image.
func saveCover(data []byte, path string, maxWidth int) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("downloaded cover is not a usable image: %w", err)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save cover: %w", err)
	}
	slog.Info("Saved cover", "path", path)
	return nil
}

func drainRecords(results <-chan *metadata.Record) []*metadata.Record {
	var records []*metadata.Record
	for {
		select {
		case rec := <-results:
			records = append(records, rec)
		default:
			sort.SliceStable(records, func(i, j int) bool {
				return records[i].Relevance < records[j].Relevance
			})
			return records
		}
	}
}

func printRecords(w io.Writer, records []*metadata.Record) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return nil
}

// Execute runs the Kong-based CLI.
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("antikvarium"),
		kong.Description("Book metadata and cover lookup against antikvarium.hu."),
		kong.UsageOnError(),
	)

	initLogging(cli.Debug)
	initConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig(cli *CLI) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()

	// CLI flags win over the config file.
	config.SetMaxResults(cli.MaxResults)
	config.SetRequestTimeout(cli.Timeout)
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
