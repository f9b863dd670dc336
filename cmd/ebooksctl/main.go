// Command ebooksctl is the offline companion of the ebooks service: it
// previews posts from a local corpus, converts archives, loads texts into the
// configured store and runs one-shot posts from cron.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `help:"Configuration file (.json, .yaml or .yml)." default:"./config.json" type:"path" short:"c"`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`
}

// Logger returns a stderr logger at the selected level.
func (g *Globals) Logger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(g.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// cli is the command tree.
type cli struct {
	Globals

	Generate      GenerateCmd      `cmd:"" help:"Preview posts generated from a local corpus file."`
	ImportArchive ImportArchiveCmd `cmd:"" help:"Convert a Twitter archive CSV into a corpus file or the configured store."`
	Upload        UploadCmd        `cmd:"" help:"Append the texts of a corpus file to the configured store."`
	Post          PostCmd          `cmd:"" help:"Run one scheduled post with the configured sources and publishers."`
	Version       VersionCmd       `cmd:"" help:"Show version information."`
}

var CLI cli

func options() []kong.Option {
	return []kong.Option{
		kong.Name("ebooksctl"),
		kong.Description("Markov chain post generator - offline tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}
}

func main() {
	ctx := kong.Parse(&CLI, options()...)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
