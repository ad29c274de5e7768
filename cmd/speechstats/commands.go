package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/api"
	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/pipeline"
	"github.com/lexiqai/speech-insights/internal/render"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

type analyzeOptions struct {
	profile  string
	jsonOut  bool
	plotsDir string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "speechstats",
		Short:         "Speech delivery analytics for recorded talks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file> [file...]",
		Short: "Analyze one recording, or compare two or three",
		Args:  cobra.RangeArgs(comparison.MinRecordings-1, comparison.MaxRecordings),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.profile, "profile", "", "analysis profile YAML (overrides ANALYSIS_PROFILE)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the full JSON payload instead of a summary")
	cmd.Flags().StringVar(&opts.plotsDir, "plots", "", "directory to write chart PNGs to")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, opts *analyzeOptions, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.InitLogger(cfg.LogLevel, true)
	logger := observability.GetLogger()
	ctx = logger.WithContext(ctx)

	profilePath := cfg.AnalysisProfile
	if opts.profile != "" {
		profilePath = opts.profile
	}
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return err
	}

	transcriber, err := transcript.New(cfg)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Transcriber:       transcriber,
		Decoder:           audio.NewAutoDecoder(cfg.FFmpegPath, cfg.DecodeSampleRate),
		Analyzer:          analytics.New(profile),
		Comparer:          comparison.New(profile),
		UploadDir:         cfg.UploadDirectory(),
		TranscriptPreview: profile.Output.TranscriptPreview,
	}
	if opts.plotsDir != "" || opts.jsonOut {
		popts.Renderer = render.NewPNG()
	}
	p := pipeline.New(popts)

	uploads, closeAll, err := openFiles(paths)
	if err != nil {
		return err
	}
	defer closeAll()

	// JSON output stays machine readable
	notes := out
	if opts.jsonOut {
		notes = io.Discard
	}

	if len(uploads) == 1 {
		fr, err := p.AnalyzeSingle(ctx, uploads[0])
		if err != nil {
			return err
		}
		if err := writePlots(notes, opts.plotsDir, fr.Plots); err != nil {
			return err
		}
		if opts.jsonOut {
			return printJSON(out, api.NewReportPayload(fr))
		}
		printReport(out, fr.Filename, fr.Report.Stats)
		return nil
	}

	cr, err := p.Compare(ctx, uploads)
	if err != nil {
		return err
	}
	if err := writePlots(notes, opts.plotsDir, cr.Plots); err != nil {
		return err
	}
	if opts.jsonOut {
		return printJSON(out, api.NewComparisonPayload(cr))
	}
	for _, f := range cr.Files {
		printReport(out, f.Filename, f.Stats)
	}
	printSignificance(out, cr.Result.PacingSignificance)
	return nil
}

func openFiles(paths []string) ([]pipeline.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		files = append(files, f)
		uploads = append(uploads, pipeline.Upload{Filename: filepath.Base(path), Body: f})
	}
	return uploads, closeAll, nil
}

func writePlots(out io.Writer, dir string, plots map[string]string) error {
	if dir == "" || len(plots) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plots directory: %w", err)
	}
	for name, encoded := range plots {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", name, err)
		}
		path := filepath.Join(dir, name+".png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		done.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
	done    = color.New(color.FgGreen)
)

func printReport(out io.Writer, filename string, s analytics.Stats) {
	heading.Fprintf(out, "\n%s\n", filename)
	row := func(name, format string, v interface{}) {
		label.Fprintf(out, "  %-22s", name)
		fmt.Fprintf(out, format+"\n", v)
	}

	row("mean wpm", "%.1f", s.Speech.MeanWPM)
	row("wpm variability", "%.1f", s.Speech.WPMVariability)
	row("silence ratio", "%.2f", s.Speech.SilenceRatio)
	row("avg pause (s)", "%.2f", s.Speech.AvgPauseDuration)
	row("high confidence ratio", "%.2f", s.Confidence.HighConfidenceRatio)
	row("unique words", "%d", s.Vocab.UniqueWords)
	row("lexical diversity", "%.2f", s.Vocab.LexicalDiversity)
	row("avg word length", "%.1f", s.Vocab.AvgWordLength)

	if low := s.Confidence.LowConfidenceWords; len(low) > 0 {
		warn.Fprintf(out, "  %d low-confidence segment(s): %q\n", len(low), low)
	}
}

func printSignificance(out io.Writer, p *float64) {
	heading.Fprintln(out, "\nPacing significance (ANOVA on mean wpm)")
	if p == nil {
		warn.Fprintln(out, "  unavailable")
		return
	}
	fmt.Fprintf(out, "  p = %.4f\n", *p)
}
