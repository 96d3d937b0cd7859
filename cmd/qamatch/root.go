package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/internal/infra/knowledge"
	"github.com/yanqian/support-assistant/pkg/logger"
)

var samplePhrases = []string{
	"Porque no puedo accesar",
	"acess",
	"hola",
	"mi codigo no sirve",
}

type options struct {
	spanishPath string
	englishPath string
	language    string
	minScore    int
	stdin       bool
	asJSON      bool
	logLevel    string
}

type matchReport struct {
	Input    string      `json:"input"`
	Language qa.Language `json:"language"`
	Score    int         `json:"score"`
	Category string      `json:"category,omitempty"`
	Question string      `json:"question,omitempty"`
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "qamatch [phrase...]",
		Short: "Match phrases against the offline Q&A knowledge base",
		Long: "Loads the Spanish and English knowledge files, detects the language of each phrase " +
			"and prints the best keyword score and matched category. Without arguments a built-in " +
			"set of sample phrases is used.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.spanishPath, "es", "qa-data/spanish.json", "Spanish knowledge file")
	flags.StringVar(&opts.englishPath, "en", "qa-data/english.json", "English knowledge file")
	flags.StringVar(&opts.language, "lang", "", "force a language (es|en) instead of detecting it")
	flags.IntVar(&opts.minScore, "min-score", qa.DefaultMinScore, "minimum score for a match")
	flags.BoolVar(&opts.stdin, "stdin", false, "read one phrase per line from stdin")
	flags.BoolVar(&opts.asJSON, "json", false, "emit one JSON object per phrase")
	flags.StringVar(&opts.logLevel, "log-level", "error", "loader log level")
	return cmd
}

func run(ctx context.Context, in io.Reader, out, errOut io.Writer, opts *options, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var forced qa.Language
	if opts.language != "" {
		lang, ok := qa.ParseLanguage(opts.language)
		if !ok {
			return fmt.Errorf("unsupported language %q", opts.language)
		}
		forced = lang
	}

	phrases, err := collectPhrases(in, opts.stdin, args)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(errOut, opts.logLevel)
	src := knowledge.NewFileSource(map[qa.Language]string{
		qa.LanguageSpanish: opts.spanishPath,
		qa.LanguageEnglish: opts.englishPath,
	})
	collections := knowledge.Load(ctx, src, []qa.Language{qa.LanguageSpanish, qa.LanguageEnglish}, log)
	matcher := qa.NewMatcher(collections, qa.MatcherConfig{MinScore: opts.minScore})
	log.Info("knowledge loaded",
		"es", matcher.Size(qa.LanguageSpanish),
		"en", matcher.Size(qa.LanguageEnglish),
		"minScore", matcher.MinScore(),
	)
	detector := qa.NewDetector(qa.DetectorConfig{})

	enc := json.NewEncoder(out)
	for _, phrase := range phrases {
		report := evaluate(matcher, detector, forced, phrase)
		if opts.asJSON {
			if err := enc.Encode(report); err != nil {
				return err
			}
			continue
		}
		category := report.Category
		if category == "" {
			category = "NONE"
		}
		fmt.Fprintf(out, "Input: %q [%s]\n", report.Input, report.Language)
		fmt.Fprintf(out, "   Score: %d\n", report.Score)
		fmt.Fprintf(out, "   Matched Category: %s\n", category)
		fmt.Fprintln(out, "---------------------------")
	}
	return nil
}

func evaluate(matcher *qa.Matcher, detector *qa.Detector, forced qa.Language, phrase string) matchReport {
	lang := forced
	if lang == "" {
		lang = detector.Detect(phrase)
	}
	result := matcher.FindBestMatch(phrase, lang)
	report := matchReport{Input: phrase, Language: lang, Score: result.Score}
	if result.Matched() {
		report.Category = result.Entry.Category
		report.Question = result.Entry.Question
	}
	return report
}

func collectPhrases(in io.Reader, fromStdin bool, args []string) ([]string, error) {
	if !fromStdin {
		if len(args) == 0 {
			return samplePhrases, nil
		}
		return args, nil
	}
	var phrases []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			phrases = append(phrases, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return phrases, nil
}
