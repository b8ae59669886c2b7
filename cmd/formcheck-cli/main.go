package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcheck/internal/intake"
	"github.com/goliatone/go-formcheck/internal/prompt"
	"github.com/goliatone/go-formcheck/pkg/matching"
	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/notify"
	"github.com/goliatone/go-formcheck/pkg/openapi"
	"github.com/goliatone/go-formcheck/pkg/rules"
	"github.com/goliatone/go-formcheck/pkg/validation"
)

const maxFixRounds = 5

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	data        string
	step        string
	keys        string
	rulesDir    string
	openapiPath string
	operation   string
	matches     string
	exhaustive  bool
	interactive bool
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("formcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.data, "data", "", "form snapshot to validate (JSON or YAML)")
	fs.StringVar(&opts.step, "step", "", "validate only one intake step: "+strings.Join(intake.Steps(), ", "))
	fs.StringVar(&opts.keys, "keys", "", "comma separated validation keys (overrides -step)")
	fs.StringVar(&opts.rulesDir, "rules", "", "directory of additional rule documents")
	fs.StringVar(&opts.openapiPath, "openapi", "", "OpenAPI document to derive rules from")
	fs.StringVar(&opts.operation, "operation", "", "operation ID used with -openapi")
	fs.StringVar(&opts.matches, "matches", "", "duplicate-check response to annotate (JSON)")
	fs.BoolVar(&opts.exhaustive, "exhaustive", false, "check every leaf even after a failure")
	fs.BoolVar(&opts.interactive, "interactive", false, "prompt for corrections of failing fields")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.data == "" {
		return options{}, errors.New("formcheck: -data is required")
	}
	if (opts.openapiPath == "") != (opts.operation == "") {
		return options{}, errors.New("formcheck: -openapi and -operation must be used together")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	root, err := readSnapshot(opts.data)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	registry, err := buildRegistry(ctx, opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	keys, err := selectKeys(opts, registry)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	bus := notify.New()
	defer bus.Close()
	state := notify.NewFieldState().Attach(bus)

	engine := validation.New(registry, validation.WithBus(bus), validation.WithLogger(logger))

	if opts.interactive {
		driver := prompt.NewSurveyDriver(stdout)
		if _, err := prompt.Fix(ctx, driver, engine, keys, root, maxFixRounds); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	var valid bool
	if opts.exhaustive {
		valid = engine.RunValidation(keys, root, true)
	} else {
		valid = engine.Validate(keys, root, true)
	}
	engine.Summarize(keys, root)

	if opts.matches != "" {
		resp, err := readMatches(opts.matches)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		mapper, err := matching.New(intake.MatchTable(), matching.WithLogger(logger))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		modal := notify.Subscribe(bus, notify.ModalRequests, func(req model.ModalRequest) {
			fmt.Fprintf(stdout, "%s: %s\n", req.Title, req.Message)
		})
		sub := mapper.Listen(bus)
		notify.Publish(bus, notify.MatchResponses, resp)
		sub.Unsubscribe()
		modal.Unsubscribe()
	}

	report(stdout, state)

	if match, ok := state.Batch(model.SourceMatch, false); ok && len(match.Fields) > 0 {
		valid = false
	}
	if !valid {
		return 1
	}
	return 0
}

func buildRegistry(ctx context.Context, opts options) (*rules.Registry, error) {
	registry := rules.NewRegistry()
	// Intake rules are the default; external rule sources replace them
	// unless a wizard step is selected.
	external := opts.rulesDir != "" || opts.openapiPath != ""
	if !external || opts.step != "" {
		registry.Apply(intake.RuleSet())
	}

	if opts.rulesDir != "" {
		set, err := rules.LoadFS(os.DirFS(opts.rulesDir), nil)
		if err != nil {
			return nil, err
		}
		registry.Apply(set)
	}

	if opts.openapiPath != "" {
		dir, name := filepath.Split(opts.openapiPath)
		if dir == "" {
			dir = "."
		}
		doc, err := openapi.ReadDocument(ctx, os.DirFS(dir), name)
		if err != nil {
			return nil, err
		}
		set, err := openapi.RuleSetFromOperation(ctx, doc, opts.operation)
		if err != nil {
			return nil, err
		}
		registry.Apply(set)
	}
	return registry, nil
}

func selectKeys(opts options, registry *rules.Registry) ([]string, error) {
	if opts.keys != "" {
		var keys []string
		for _, key := range strings.Split(opts.keys, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		return keys, nil
	}
	if opts.step != "" {
		return intake.StepKeys(opts.step)
	}
	return registry.Keys(), nil
}

func readSnapshot(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formcheck: read %s: %w", path, err)
	}
	root := make(map[string]any)
	if err := json.Unmarshal(data, &root); err == nil {
		return root, nil
	}
	root = make(map[string]any)
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("formcheck: parse %s: %w", path, err)
	}
	return root, nil
}

func readMatches(path string) (model.MatchResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MatchResponse{}, fmt.Errorf("formcheck: read %s: %w", path, err)
	}
	var resp model.MatchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.MatchResponse{}, fmt.Errorf("formcheck: parse %s: %w", path, err)
	}
	return resp, nil
}

func report(w io.Writer, state *notify.FieldState) {
	errs := state.Errors()
	if len(errs) == 0 {
		fmt.Fprintln(w, "All fields are valid.")
	}
	for _, n := range errs {
		fmt.Fprintf(w, "%s: %s\n", n.FieldID, n.ErrorMsg)
	}

	for _, key := range []struct {
		source  string
		warning bool
		label   string
	}{
		{model.SourceSubmission, false, "error"},
		{model.SourceMatch, false, "error"},
		{model.SourceMatch, true, "warning"},
	} {
		batch, ok := state.Batch(key.source, key.warning)
		if !ok || len(batch.Fields) == 0 {
			continue
		}
		fmt.Fprintf(w, "[%s] %s (%d %s field(s))\n", key.source, batch.Title, len(batch.Fields), key.label)
	}
}
