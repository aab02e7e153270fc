// Command corpustool validates, counts, converts and autosplits
// parallel-sentence corpora stored as TSV or TMX files.
//
// Flags:
//
//	--cmd                  one of: validate, convert, count, autosplit
//	--input-files          comma-separated input files (.tsv / .tmx)
//	--src-lang-code        source language, BCP-47 (e.g. en, en-US)
//	--dst-lang-code        target language, BCP-47
//	--output-file          output file (convert)
//	--train-dataset        train output file (autosplit)
//	--validation-dataset   validation output file (autosplit)
//	--test-dataset         test output file (autosplit)
//	--config               path to YAML config file (optional; falls back to env)
//	--yes                  skip the autosplit randomization acknowledgement
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/automl-translation-tools/internal/app"
	"github.com/GoogleCloudPlatform/automl-translation-tools/internal/config"
)

func main() {
	cmdFlag := flag.String("cmd", "", "command to run: validate, convert, count, autosplit")
	inputFilesFlag := flag.String("input-files", "", "comma-separated input files")
	srcLangFlag := flag.String("src-lang-code", "", "source language (BCP-47)")
	dstLangFlag := flag.String("dst-lang-code", "", "target language (BCP-47)")
	outputFileFlag := flag.String("output-file", "", "output file (convert)")
	trainFlag := flag.String("train-dataset", "", "train output file (autosplit)")
	validationFlag := flag.String("validation-dataset", "", "validation output file (autosplit)")
	testFlag := flag.String("test-dataset", "", "test output file (autosplit)")
	configFlag := flag.String("config", "", "path to YAML config file")
	yesFlag := flag.Bool("yes", false, "skip the autosplit randomization acknowledgement")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Debug("starting", slog.String("version", app.BuildVersion()))

	if *cmdFlag == "" || *inputFilesFlag == "" || *srcLangFlag == "" || *dstLangFlag == "" {
		logger.Error("flags --cmd, --input-files, --src-lang-code and --dst-lang-code are required")
		os.Exit(1)
	}

	inputs := splitInputFiles(*inputFilesFlag)
	commands := app.NewCommands(logger, cfg.Parser.Limits())

	switch *cmdFlag {
	case "validate":
		if err := commands.Validate(inputs, *srcLangFlag, *dstLangFlag); err != nil {
			fail(logger, err)
		}
		logger.Info("input files are valid")

	case "count":
		total, err := commands.Count(inputs, *srcLangFlag, *dstLangFlag)
		if err != nil {
			fail(logger, err)
		}
		logger.Info("total parallel phrases", slog.Int("count", total))

	case "convert":
		requireFlag(logger, "convert", "output-file", *outputFileFlag)
		err := commands.Convert(inputs, expandUser(*outputFileFlag), *srcLangFlag, *dstLangFlag)
		if err != nil {
			fail(logger, err)
		}

	case "autosplit":
		requireFlag(logger, "autosplit", "train-dataset", *trainFlag)
		requireFlag(logger, "autosplit", "validation-dataset", *validationFlag)
		requireFlag(logger, "autosplit", "test-dataset", *testFlag)
		if !*yesFlag {
			acknowledgeRandomSplit()
		}
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		err := commands.Autosplit(inputs,
			expandUser(*trainFlag), expandUser(*validationFlag), expandUser(*testFlag),
			*srcLangFlag, *dstLangFlag, rnd)
		if err != nil {
			fail(logger, err)
		}

	default:
		logger.Error("unsupported command", slog.String("cmd", *cmdFlag))
		os.Exit(1)
	}
}

func fail(logger *slog.Logger, err error) {
	logger.Error("command failed", slog.String("error", err.Error()))
	os.Exit(1)
}

func requireFlag(logger *slog.Logger, cmd, name, value string) {
	if value == "" {
		logger.Error("missing required flag",
			slog.String("cmd", cmd),
			slog.String("flag", name))
		os.Exit(1)
	}
}

// acknowledgeRandomSplit warns that autosplit is randomized and waits for
// Enter. Use --yes in scripts.
func acknowledgeRandomSplit() {
	fmt.Fprint(os.Stderr, "Warning: autosplit randomly splits the dataset and may produce "+
		"unreliable training results. Press enter to acknowledge the risk. ")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

func splitInputFiles(raw string) []string {
	parts := strings.Split(raw, ",")
	inputs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		inputs = append(inputs, expandUser(p))
	}
	return inputs
}

// expandUser resolves a leading ~/ against the current user's home directory.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
