// svcb - SVCB trace inspection tool
//
// Usage:
//
//	svcb stat <file>    Print block/schema counts and the trace extent
//	svcb scopes <file>  Print the scope tree with variables
//	svcb dump <file>    Print every block as it decodes
//
// Files may be raw revision-1 containers or zstd-compressed ones.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/Neumenon/svcb/svcb"
)

var opts struct {
	Verbose    bool `short:"v" long:"verbose" description:"debug logging"`
	MaxChanges int  `long:"max-changes" default:"0" description:"stop after N value-change blocks (0 = no limit)"`

	Args struct {
		Command string `positional-arg-name:"command" description:"stat, scopes, or dump"`
		File    string `positional-arg-name:"file" description:"trace file"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	if _, err := flags.ParseArgs(&opts, os.Args[1:]); err != nil {
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	f, err := os.Open(opts.Args.File)
	if err != nil {
		log.Fatal().Err(err).Msg("open trace")
	}
	defer f.Close()

	c, err := svcb.Open(f, svcb.WithValueTracking())
	if err != nil {
		log.Fatal().Err(err).Msg("read container header")
	}
	defer c.Close()
	log.Debug().Str("timescale_fs", c.Timescale().String()).Msg("container open")

	switch opts.Args.Command {
	case "stat":
		err = runStat(c)
	case "scopes":
		err = runScopes(c)
	case "dump":
		err = runDump(c)
	default:
		log.Fatal().Str("command", opts.Args.Command).Msg("unknown command")
	}
	if err != nil {
		log.Fatal().Err(err).Int64("offset", c.Offset()).Msg("decode failed")
	}
}

// drain consumes the block stream, calling visit for each block, until EOF,
// an error, or the change limit.
func drain(c *svcb.Container, visit func(svcb.Block)) error {
	changes := 0
	for {
		b, err := c.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if visit != nil {
			visit(b)
		}
		if b.Type() == svcb.BlockValueChange {
			changes++
			if opts.MaxChanges > 0 && changes >= opts.MaxChanges {
				return nil
			}
		}
	}
}

func runStat(c *svcb.Container) error {
	counts := map[svcb.BlockType]int{}
	events := 0
	err := drain(c, func(b svcb.Block) {
		counts[b.Type()]++
		if vc, ok := b.(svcb.ValueChangeBlock); ok {
			events += len(vc.Changes)
		}
	})
	if err != nil {
		return err
	}

	reg := c.Registry()
	fmt.Printf("timescale:     %s fs/step\n", c.Timescale())
	fmt.Printf("trace extent:  %d steps\n", c.Now())
	fmt.Printf("scopes:        %d\n", len(reg.Scopes()))
	fmt.Printf("variables:     %d\n", reg.NumVariables())
	fmt.Printf("storages:      %d\n", len(reg.Storages()))
	for t := svcb.BlockScope; t <= svcb.BlockTimestep; t++ {
		fmt.Printf("%-14s %d\n", t.String()+" blocks:", counts[t])
	}
	fmt.Printf("change events: %d\n", events)
	return nil
}

func runScopes(c *svcb.Container) error {
	if err := drain(c, nil); err != nil {
		return err
	}
	printScope(c.Registry(), svcb.RootScope, 0)
	return nil
}

func printScope(reg *svcb.Registry, id svcb.ScopeID, depth int) {
	s, err := reg.LookupScope(id)
	if err != nil {
		return
	}
	name := s.Name
	if id == svcb.RootScope {
		name = "(root)"
	}
	fmt.Printf("%*s%s\n", depth*2, "", name)
	for _, vid := range reg.ScopeVariables(id) {
		if v, err := reg.LookupVariable(vid); err == nil {
			fmt.Printf("%*s- %s [%s]\n", depth*2+2, "", v.Name, v.Interp)
		}
	}
	for _, child := range reg.Children(id) {
		printScope(reg, child, depth+1)
	}
}

func runDump(c *svcb.Container) error {
	return drain(c, func(b svcb.Block) {
		switch b := b.(type) {
		case svcb.ScopeBlock:
			fmt.Printf("scope %d parent=%d name=%q\n", b.Scope.ID, b.Scope.Parent, b.Scope.Name)
		case svcb.StorageBlock:
			s := b.Storage
			fmt.Printf("storage %d kind=%s width=%d start=%d\n", s.ID, s.Kind, s.Width, s.Start)
		case svcb.VariableBlock:
			v := b.Variable
			fmt.Printf("variable %d scope=%d name=%q interp=%s\n", v.ID, v.Scope, v.Name, v.Interp)
		case svcb.TimestepBlock:
			fmt.Printf("timestep +%d now=%d\n", b.Delta, b.Now)
		case svcb.ValueChangeBlock:
			for _, ch := range b.Changes {
				fmt.Printf("change storage=%d %s\n", ch.Storage, ch.Values)
			}
		}
	})
}
