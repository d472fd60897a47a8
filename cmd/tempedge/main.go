package main

import (
	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Path to a YAML config file." type:"path" env:"TEMPEDGE_CONFIG"`
	LogLevel string `help:"Override logging.level (debug, info, warn, error)." name:"log-level"`
}

type CLI struct {
	Globals

	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to .env file'"`

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the scanner with the HTTP control surface."`
	Once      OnceCmd      `cmd:"" help:"Run a single scan cycle and print the ranked board."`
	ScanEvent ScanEventCmd `cmd:"" name:"scan-event" help:"Print the buckets and prices of a market event."`
	Targets   TargetsCmd   `cmd:"" help:"Print the resolved target registry as YAML."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tempedge"),
		kong.Description("Decision engine for daily maximum temperature markets."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
