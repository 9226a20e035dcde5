package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/openrouter"
	"github.com/spigell/resume-screener/internal/ai/placeholder"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/intake"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/report"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/secrets"
)

const (
	PromptExport              = "Export results to csv"
	PromptShowTable           = "Show results table"
	PromptDumpToFile          = "Dump results to json file"
	PromptAppendToExcludeFile = "Append screened resumes to exclude file"
	PromptExit                = "Exit"

	providerPlaceholder = placeholder.Provider
	providerGemini      = gemini.Provider
	providerOpenRouter  = openrouter.Provider

	defaultOutput = report.ExportFilename
	stdinMarker   = "-"
)

var errExit = errors.New("exit requested")

var screenCmd = &cobra.Command{
	Use:   "screen [paths...]",
	Short: "Score resumes against a job description",
	Long: "Score every .pdf and .docx resume found in the given files and directories " +
		"(directories are not walked recursively) against a job description.",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().String("job", "", "job description text")
	screenCmd.Flags().StringP("job-file", "f", "", "file with the job description, - reads stdin")
	screenCmd.Flags().StringP("output", "o", defaultOutput, "path of the csv export")
	screenCmd.Flags().StringP("exclude-file", "e", "", "special file with already screened resumes to skip. Default is unset.")
	screenCmd.Flags().String("provider", "", "scoring provider: placeholder, gemini or openrouter")
	screenCmd.Flags().BoolP("auto-approve", "y", false, "do not ask what to do with the results, export csv right away")

	viper.BindPFlag("job-file", screenCmd.Flags().Lookup("job-file"))
	viper.BindPFlag("output", screenCmd.Flags().Lookup("output"))
	viper.BindPFlag("exclude-file", screenCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("scorer.provider", screenCmd.Flags().Lookup("provider"))
}

func screen(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	jobText, _ := cmd.Flags().GetString("job")
	jobDescription, err := readJobDescription(jobText, config.JobFile, os.Stdin)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err),
			zap.String("hint", "pass --job, --job-file or set job-file in the configuration file"),
		)
	}

	paths, err := intake.Collect(args)
	if err != nil {
		logger.Fatal("collecting resumes", zap.Error(err))
	}

	steps := []intake.Filter{
		intake.NewSupportedFormats(),
		intake.NewExcludeFile(config.ExcludeFile),
	}

	paths, err = intake.Run(ctx, intake.Deps{Logger: logger}, steps, paths)
	if err != nil {
		logger.Fatal("filtering resumes failed", zap.Error(err))
	}

	if len(paths) == 0 {
		logger.Info("exiting", zap.String("reason", "no resumes left after filters"))
		return
	}

	docs, err := intake.Load(paths)
	if err != nil {
		logger.Fatal("loading resumes", zap.Error(err))
	}

	scorer, err := newScorer(ctx, config.Scorer, logger)
	if err != nil {
		logger.Fatal("building a scorer", zap.Error(err))
	}

	extractor := extract.New(logger, extract.WithTempDir(config.Extract.TempDir))
	pipeline := screening.New(extractor, scorer, logger, screening.WithObserver(progressObserver(logger)))

	batch := pipeline.Run(ctx, jobDescription, docs)

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if autoApprove {
		if err := handleAction(PromptExport, logger, config, batch); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	prompt := promptui.Select{
		Label: "What to do with the results?",
		Items: actions(config),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, batch); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func actions(config *Config) []string {
	items := []string{PromptExport, PromptShowTable, PromptDumpToFile}
	if strings.TrimSpace(config.ExcludeFile) != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

func handleAction(action string, logger *zap.Logger, config *Config, batch *report.BatchReport) error {
	switch action {
	case PromptExport:
		path, err := exportCSV(batch, config.Output)
		if err != nil {
			return fmt.Errorf("export results: %w", err)
		}
		logger.Info("results exported", zap.String("filename", path), zap.Int("records", batch.Len()))
		return nil
	case PromptShowTable:
		table, _, err := report.Assemble(batch.Records)
		if err != nil {
			return err
		}
		return report.Render(os.Stdout, table)
	case PromptDumpToFile:
		filename, err := batch.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		history, err := intake.LoadHistory(config.ExcludeFile)
		if err != nil {
			return err
		}

		history.Append(intake.FromReport(batch))

		if err := history.ToFile(config.ExcludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", config.ExcludeFile), zap.Int("count", batch.Len()))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// exportCSV writes the export to output. A directory output receives the
// default export file name.
func exportCSV(batch *report.BatchReport, output string) (string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		output = defaultOutput
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = filepath.Join(output, report.ExportFilename)
	}

	data, err := batch.CSV()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return "", err
	}

	return output, nil
}

// readJobDescription prefers inline text over the file. The file "-" is stdin.
func readJobDescription(text, file string, stdin io.Reader) (string, error) {
	if text = strings.TrimSpace(text); text != "" {
		return text, nil
	}

	file = strings.TrimSpace(file)
	if file == "" {
		return "", errors.New("job description is required")
	}

	var (
		data []byte
		err  error
	)
	if file == stdinMarker {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("reading job description from %q: %w", file, err)
	}

	description := strings.TrimSpace(string(data))
	if description == "" {
		return "", fmt.Errorf("job description from %q is empty", file)
	}

	return description, nil
}

func progressObserver(log *zap.Logger) screening.Observer {
	return screening.ObserverFunc(func(e screening.Event) {
		if e.Kind != screening.EventRecordReady || e.Record == nil {
			return
		}

		log.Info("resume screened",
			zap.String(logger.FieldDocument, e.Document),
			zap.String("progress", fmt.Sprintf("%d/%d", e.Index+1, e.Total)),
			zap.String("score", report.FormatScore(e.Record.Score)),
			zap.String("feedback", e.Record.Feedback),
		)
	})
}

func newScorer(ctx context.Context, cfg *ScorerConfig, log *zap.Logger) (ai.Scorer, error) {
	if cfg == nil {
		cfg = &ScorerConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", providerPlaceholder:
		log.Info("using placeholder scorer", zap.String("hint", "set scorer.provider to gemini or openrouter for model scoring"))
		return placeholder.New(), nil
	case providerGemini:
		return newGeminiScorer(ctx, cfg, log)
	case providerOpenRouter:
		return newOpenRouterScorer(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported scorer provider: %s", cfg.Provider)
	}
}

func newGeminiScorer(ctx context.Context, cfg *ScorerConfig, log *zap.Logger) (ai.Scorer, error) {
	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (or set scorer.gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries,
		log.With(zap.Int("ai_retry_attempts", gcfg.MaxRetries)),
	)
	if err != nil {
		return nil, err
	}

	scorerLogger := logger.WithProvider(log, providerGemini, generator.Model())

	return gemini.NewScorer(generator, scorerLogger,
		gemini.WithMaxLogLength(cfg.MaxLogLength),
		gemini.WithJobDescriptionCache(gcfg.CacheJobDescription),
	), nil
}

func newOpenRouterScorer(cfg *ScorerConfig, log *zap.Logger) (ai.Scorer, error) {
	ocfg := cfg.OpenRouter
	if ocfg == nil {
		ocfg = &OpenRouterConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "openrouter api key",
		File: ocfg.APIKeyFile,
		Env:  "OPENROUTER_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (or set scorer.openrouter.api-key-file)", err)
	}

	model := ocfg.Model
	if strings.TrimSpace(model) == "" {
		model = openrouter.DefaultModel
	}

	return openrouter.NewScorer(openrouter.Config{
		APIKey:       apiKey,
		Model:        model,
		BaseURL:      ocfg.BaseURL,
		Timeout:      ocfg.Timeout,
		MaxLogLength: cfg.MaxLogLength,
	}, logger.WithProvider(log, providerOpenRouter, model))
}
