package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nesav/emu/log"
)

type mode byte

const (
	renderMode  mode = iota // Render a trace to WAV/PNG files
	playMode                // Play a trace in real time
	infoMode                // Show trace infos
	versionMode             // Show nesav version
)

type (
	CLI struct {
		Render  Render  `cmd:"" help:"Play a trace headless, write audio to WAV and frames to PNG."`
		Play    Play    `cmd:"" help:"Play a trace in real time."`
		Info    Info    `cmd:"" help:"Show trace infos."`
		Version Version `cmd:"" help:"Show nesav version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"existingfile" placeholder:"FILE"`

		mode mode
	}

	Render struct {
		TracePath string `arg:"" name:"/path/to/trace" help:"${tracepath_help}" type:"existingfile"`

		WAV    string   `name:"wav" help:"Write audio to WAV file." type:"path" placeholder:"FILE"`
		OutDir string   `name:"outdir" help:"Directory where frames are saved." type:"path" default:"."`
		Frames []uint64 `name:"frames" help:"${frames_help}" sep:","`
	}

	Play struct {
		TracePath string `arg:"" name:"/path/to/trace" help:"${tracepath_help}" type:"existingfile"`
	}

	Info struct {
		TracePath string `arg:"" name:"/path/to/trace" help:"${tracepath_help}" type:"existingfile"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"tracepath_help": "Register trace, in JSON lines format.",
	"frames_help":    "Frames to save as PNG, overrides the config file.",
	"config_help":    "Configuration file. (default: <user config dir>/nesav/config.toml)",
	"log_help":       "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nesav"),
		kong.Description("NES audio/video core, driven by register traces."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "render </path/to/trace>":
		cfg.mode = renderMode
	case "play </path/to/trace>":
		cfg.mode = playMode
	case "info </path/to/trace>":
		cfg.mode = infoMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs || lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n\t"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
