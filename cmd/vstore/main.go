// Package main is the entry point for vstore, a tool to inspect and edit a
// versioned store file from the command line.
//
// The value is handled as a JSON or YAML object. Stored values that are not
// objects are migrated by wrapping them under a "value" member.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/vstore/internal/codec"
	"github.com/maruel/vstore/internal/fsio"
	"github.com/maruel/vstore/internal/kstore"
	"github.com/maruel/vstore/internal/versioned"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// object is the value type the tool works with.
type object = map[string]any

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "vstore: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	path := flag.String("path", "", "Data file of the store (required)")
	version := flag.Int("version", 0, "Schema version written with the value")
	format := flag.String("format", "json", "Codec (json, yaml)")
	strict := flag.Bool("strict", false, "Reject unknown members and omit zero values")
	atomic := flag.Bool("atomic", false, "Write through a temporary file and rename")
	noCache := flag.Bool("no-cache", false, "Read the files on every access")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: vstore [flags] <get|set VALUE|update KEY=VALUE...|clear|reset|watch>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(initLogger(*logLevel))

	if *path == "" {
		return errors.New("-path is required")
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	opts := codec.DefaultOptions()
	if *strict {
		opts = codec.Options{}
	}
	var c codec.Codec
	switch *format {
	case "json":
		c = codec.JSON{Options: opts}
	case "yaml":
		c = codec.YAML{Options: opts}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	store, err := versioned.Open(versioned.Config[object]{
		Path:         *path,
		Version:      *version,
		DisableCache: *noCache,
		Codec:        c,
		Migration:    migrate,
		FS:           fsio.OS{Atomic: *atomic},
	})
	if err != nil {
		return err
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "get":
		return printValue(ctx, store, c)
	case "set":
		if len(args) != 1 {
			return errors.New("set takes exactly one value")
		}
		v, err := parseObject(c, args[0])
		if err != nil {
			return err
		}
		if err := store.Set(ctx, &v); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Stored value", "path", *path, "version", *version)
		return nil
	case "update":
		if len(args) == 0 {
			return errors.New("update takes at least one KEY=VALUE")
		}
		_, err := store.Update(ctx, func(v *object) (*object, error) {
			if v == nil || *v == nil {
				v = &object{}
			}
			for _, arg := range args {
				key, val, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return nil, fmt.Errorf("invalid assignment %q", arg)
				}
				(*v)[key] = parseScalar(val)
			}
			return v, nil
		})
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "Updated value", "path", *path, "keys", len(args))
		return nil
	case "clear":
		if err := store.Delete(ctx); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Cleared store", "path", *path)
		return nil
	case "reset":
		return store.Reset(ctx)
	case "watch":
		return watch(ctx, store, c, *path)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// migrate keeps objects as is and wraps any other stored value.
func migrate(version int, raw any) (*object, error) {
	slog.Info("Migrating stored value", "from", version)
	if m, ok := raw.(map[string]any); ok {
		return &m, nil
	}
	if raw == nil {
		return nil, nil
	}
	return &object{"value": raw}, nil
}

func parseObject(c codec.Codec, s string) (object, error) {
	out := codec.Decode[object](c, []byte(s))
	if out.Kind != codec.Decoded {
		return nil, fmt.Errorf("value must be an object: %w", out.Err)
	}
	return out.Value, nil
}

// parseScalar interprets val as JSON when it parses, else as a string.
func parseScalar(val string) any {
	var v any
	if err := json.Unmarshal([]byte(val), &v); err == nil {
		return v
	}
	return val
}

func printValue(ctx context.Context, store *kstore.Store[object], c codec.Codec) error {
	v, err := store.Get(ctx)
	if err != nil {
		return err
	}
	if v == nil {
		slog.InfoContext(ctx, "Store is empty")
		return nil
	}
	data, err := c.Marshal(*v)
	if err != nil {
		return err
	}
	if _, err = os.Stdout.Write(data); err != nil {
		return err
	}
	if len(data) != 0 && data[len(data)-1] != '\n' {
		_, err = fmt.Println()
	}
	return err
}

// watch prints the value now and after every change to the store files.
func watch(ctx context.Context, store *kstore.Store[object], c codec.Codec, path string) error {
	changed := make(chan struct{}, 1)
	onChange := func(string) {
		store.Invalidate()
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	if err := fsio.Watch(ctx, onChange, path, path+versioned.VersionSuffix); err != nil {
		return err
	}
	if err := printValue(ctx, store, c); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			// Both files change on a write; let the pair settle.
			time.Sleep(50 * time.Millisecond)
			if err := printValue(ctx, store, c); err != nil {
				slog.WarnContext(ctx, "Failed to read store", "err", err)
			}
		}
	}
}

// initLogger returns a tint logger on stderr at the given level.
func initLogger(level string) *slog.Logger {
	ll := &slog.LevelVar{}
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		ll.Set(slog.LevelInfo)
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}
