package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the ante poker server"`
	Bot     BotCmd           `cmd:"" help:"Connect a built-in bot to a server"`
	Spawn   SpawnCmd         `cmd:"" help:"Run a server and built-in bots for one match"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("antepoker"),
		kong.Description("Ante poker server and reference bots speaking the framed JSON protocol"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
