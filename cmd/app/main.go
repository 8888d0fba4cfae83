// Raster editor command line front end.
//
// Loads an image, runs a scripted sequence of operations through the
// execution coordinator and saves the result:
//
//	app -input in.jpg -ops "rotate:angle=90;blur:method=gaussian,kernel-size=5" -output out.png
//
// The script entries "undo", "redo" and "reset" act on the pipeline history
// instead of submitting an operation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"raster-editor/internal/history"
	"raster-editor/internal/imageio"
	"raster-editor/internal/operations"
	"raster-editor/internal/pipeline"
)

const (
	AppName    = "Raster Editor"
	AppVersion = "1.0.0"
)

func main() {
	inputPath := flag.String("input", "", "Path of the image to edit")
	outputPath := flag.String("output", "", "Path to save the edited image to")
	opsScript := flag.String("ops", "", "Semicolon-separated operations, e.g. \"rotate:angle=90;grayscale\"")
	quality := flag.Int("quality", 0, "JPEG quality (1-100, 0 = default)")
	listOps := flag.Bool("list-ops", false, "List available operations and exit")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	logger := initLogger(*debugMode)
	registry := operations.Default()

	if *listOps {
		printOperations(registry)
		return
	}

	if *inputPath == "" || *outputPath == "" {
		logger.Error("Both -input and -output are required")
		flag.Usage()
		os.Exit(2)
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"input":      *inputPath,
	}).Info("Starting " + AppName)

	slogger := initSlog(*debugMode)
	if err := run(*inputPath, *outputPath, *opsScript, *quality, registry, slogger, logger); err != nil {
		logger.WithError(err).Error("Editing session failed")
		os.Exit(1)
	}
	logger.Info("Editing session finished")
}

func run(inputPath, outputPath, opsScript string, quality int,
	registry *operations.Registry, slogger *slog.Logger, logger *logrus.Logger) error {

	loader := imageio.NewLoader(slogger)
	original, err := loader.Decode(inputPath)
	if err != nil {
		return err
	}

	hist, err := history.New(original)
	if err != nil {
		return err
	}
	coord := pipeline.NewCoordinator(registry, hist, slogger)
	coord.SetCallbacks(
		func(s pipeline.State) { logger.WithField("state", s.String()).Debug("Pipeline state changed") },
		func(p int) { logger.WithField("percent", p).Debug("Progress") },
		nil,
		nil,
	)

	steps, err := parseScript(opsScript)
	if err != nil {
		return err
	}

	for _, step := range steps {
		switch step.id {
		case "undo":
			if err := hist.Undo(); err != nil {
				return err
			}
		case "redo":
			if err := hist.Redo(); err != nil {
				return err
			}
		case "reset":
			hist.ResetToOriginal()
		default:
			if _, err := coord.SubmitAndWait(step.id, step.params); err != nil {
				return err
			}
		}
		logger.WithFields(logrus.Fields{
			"operation":      step.id,
			"history_length": hist.Len(),
		}).Info("Step applied")
	}

	format, err := imageio.FormatFromPath(outputPath)
	if err != nil {
		return err
	}
	return loader.Encode(hist.Current(), outputPath, format, quality)
}

type scriptStep struct {
	id     string
	params map[string]interface{}
}

// parseScript splits "op:key=value,key=value;op2;..." into steps. Values
// parse as booleans or numbers when they look like one, strings otherwise.
func parseScript(script string) ([]scriptStep, error) {
	var steps []scriptStep
	for _, chunk := range strings.Split(script, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		id, rawParams, _ := strings.Cut(chunk, ":")
		step := scriptStep{id: strings.TrimSpace(id), params: map[string]interface{}{}}
		if rawParams != "" {
			for _, pair := range strings.Split(rawParams, ",") {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return nil, fmt.Errorf("malformed parameter %q in step %q", pair, chunk)
				}
				step.params[strings.TrimSpace(key)] = parseValue(strings.TrimSpace(value))
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseValue(s string) interface{} {
	// "1" and "0" must stay numeric, so only the words count as booleans.
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func printOperations(registry *operations.Registry) {
	for _, name := range registry.Names() {
		op, _ := registry.Get(name)
		fmt.Printf("%s - %s\n", name, op.Description())
		for _, info := range op.Schema() {
			line := fmt.Sprintf("  %-16s %-6s default=%v", info.Name, info.Type, info.Default)
			if len(info.Options) > 0 {
				line += fmt.Sprintf(" options=%v", info.Options)
			} else if info.Min != nil || info.Max != nil {
				line += fmt.Sprintf(" range=[%v, %v]", info.Min, info.Max)
			}
			fmt.Printf("%s  %s\n", line, info.Description)
		}
	}
}

// initLogger initializes the application logger with appropriate level.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// initSlog builds the structured logger handed to the internal packages.
func initSlog(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
