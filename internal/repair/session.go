package repair

import (
	"context"
	"os"
	"time"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/ffmpeg"
	"github.com/vidmend/vidmend/internal/ffprobe"
	"github.com/vidmend/vidmend/internal/logging"
	"github.com/vidmend/vidmend/internal/media"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/planner"
	"github.com/vidmend/vidmend/internal/reporter"
	"github.com/vidmend/vidmend/internal/util"
)

// Session repairs files one at a time with a shared configuration and
// reporting surface.
type Session struct {
	cfg      *config.Config
	prober   *ffprobe.Prober
	ffmpeg   *ffmpeg.Executor
	verifier *Verifier
	rep      reporter.Reporter
	log      *logging.FileLogger
}

// NewSession creates a repair session. reporter and fileLog may be nil.
func NewSession(cfg *config.Config, rep reporter.Reporter, fileLog *logging.FileLogger) *Session {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	prober := &ffprobe.Prober{BinaryPath: cfg.FFprobePath}
	executor := &ffmpeg.Executor{BinaryPath: cfg.FFmpegPath, Timeout: cfg.CommandTimeout}
	return &Session{
		cfg:      cfg,
		prober:   prober,
		ffmpeg:   executor,
		verifier: &Verifier{Prober: prober, FFmpeg: executor},
		rep:      rep,
		log:      fileLog,
	}
}

// Outcome is the result of one successful file repair.
type Outcome struct {
	InputPath    string
	OutputPath   string
	Strategy     planner.Strategy
	Assessment   *planner.Assessment
	OriginalSize uint64
	RepairedSize uint64
	Duration     float64
	TotalTime    time.Duration
}

// Repair analyzes inputPath, attempts the planned strategies in priority
// order, and promotes the first verified candidate to outputPath. All
// intermediate files live in a scratch directory that is removed on every
// path out of this function.
func (s *Session) Repair(ctx context.Context, inputPath, outputPath string) (*Outcome, error) {
	start := time.Now()

	f, err := media.Open(inputPath)
	if err != nil {
		return nil, errors.NewUnreadableInputError(inputPath, err)
	}
	defer f.Close()

	s.rep.FileStarted(reporter.FileSummary{
		InputFile:  util.GetFilename(inputPath),
		OutputFile: util.GetFilename(outputPath),
		Size:       f.Size,
	})

	if ok, have := util.HasFreeSpaceFor(s.cfg.EffectiveTempDir(), f.Size*config.SpaceHeadroomFactor); !ok {
		return nil, errors.NewInsufficientSpaceError(s.cfg.EffectiveTempDir(), f.Size*config.SpaceHeadroomFactor, have)
	}

	dbg := logging.Global().WithFile(inputPath)

	tmp, err := util.CreateTempDir(s.cfg.EffectiveTempDir(), "vidmend")
	if err != nil {
		return nil, errors.NewIOError("cannot create scratch directory", err)
	}
	dbg.Debug("scratch directory created", "path", tmp.Path)
	defer func() {
		if err := tmp.Cleanup(); err != nil {
			s.log.Warn("scratch cleanup failed: %v", err)
		}
	}()

	analysis, err := Analyze(f)
	if err != nil {
		return nil, err
	}
	s.reportAnalysis(f, analysis)

	assessment := analysis.Assessment
	names := make([]string, len(assessment.Strategies))
	for i, st := range assessment.Strategies {
		names[i] = st.String()
	}
	s.rep.PlanReady(reporter.PlanSummary{Strategies: names})
	s.log.Info("plan for %s: severity %s, strategies %v", inputPath, assessment.Level, names)

	stem := util.GetFileStem(inputPath)
	j := &job{input: f, analysis: analysis, tmp: tmp, stem: stem}

	for i, strategy := range assessment.Strategies {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError()
		}

		j.candidate = tmp.ScopedPath(stem, strategy.String(), ".mp4")
		dbg.Debug("attempting strategy", "strategy", strategy.String(), "candidate", j.candidate)
		s.rep.StrategyStarted(reporter.StrategyAttempt{
			Name:    strategy.String(),
			Attempt: i + 1,
			Total:   len(assessment.Strategies),
		})

		outcome, err := s.attempt(ctx, strategy, j)
		if err != nil {
			if errors.IsCancelled(err) {
				return nil, err
			}
			s.rep.StrategyFinished(reporter.StrategyOutcome{
				Name:    strategy.String(),
				Attempt: i + 1,
				Total:   len(assessment.Strategies),
				Reason:  err.Error(),
			})
			s.log.Recovery("strategy %s failed: %v", strategy, err)
			_ = os.Remove(j.candidate)
			continue
		}

		s.rep.StrategyFinished(reporter.StrategyOutcome{
			Name:    strategy.String(),
			Attempt: i + 1,
			Total:   len(assessment.Strategies),
			Success: true,
		})

		if err := util.PromoteFile(j.candidate, outputPath); err != nil {
			return nil, errors.NewIOError("cannot promote repaired file", err)
		}

		outcome.InputPath = inputPath
		outcome.OutputPath = outputPath
		outcome.Strategy = strategy
		outcome.Assessment = assessment
		outcome.OriginalSize = f.Size
		outcome.TotalTime = time.Since(start)

		s.rep.RepairComplete(reporter.RepairOutcome{
			InputFile:    util.GetFilename(inputPath),
			OutputPath:   outputPath,
			Strategy:     strategy.String(),
			OriginalSize: outcome.OriginalSize,
			RepairedSize: outcome.RepairedSize,
			Duration:     outcome.Duration,
			TotalTime:    outcome.TotalTime,
		})
		s.log.Info("repaired %s with %s in %s", inputPath, strategy, outcome.TotalTime)
		return outcome, nil
	}

	return nil, errors.NewExhaustedError(inputPath, len(assessment.Strategies))
}

// attempt runs one strategy and verifies its candidate. A partial outcome
// comes back on success; Repair fills in the rest.
func (s *Session) attempt(ctx context.Context, strategy planner.Strategy, j *job) (*Outcome, error) {
	if err := s.execute(ctx, strategy, j); err != nil {
		return nil, errors.NewStrategyFailedError(strategy.String(), err)
	}

	outcome := &Outcome{}
	if size, err := util.GetFileSize(j.candidate); err == nil {
		outcome.RepairedSize = size
	}

	if s.cfg.SkipVerify {
		if outcome.RepairedSize == 0 {
			return nil, errors.NewVerificationError("candidate is empty")
		}
		return outcome, nil
	}

	summary, info, err := s.verifier.Verify(ctx, j.candidate)
	s.rep.VerificationComplete(*summary)
	if err != nil {
		return nil, err
	}
	outcome.Duration = info.Duration
	return outcome, nil
}

func (s *Session) reportAnalysis(f *media.File, a *Analysis) {
	summary := reporter.AnalysisSummary{
		Container:      string(a.Signatures.Container),
		VideoCodec:     string(a.Signatures.VideoCodec),
		AudioCodec:     string(a.Signatures.AudioCodec),
		CorruptedBytes: a.Corruption.CorruptedBytes,
		CorruptedRatio: a.Corruption.Ratio(f.Size),
		Severity:       a.Assessment.Level.String(),
	}
	if a.Walk != nil {
		summary.ValidBoxes = a.Walk.ValidCount
		summary.InvalidBoxes = a.Walk.InvalidCount
		summary.MissingBoxes = a.Walk.MissingRequired()
	}
	if len(a.Units) > 0 {
		summary.StreamUnits = len(a.Units)
		summary.Keyframes = nal.KeyframeCount(a.Units, a.Codec)
	}
	for _, tag := range a.Assessment.Tags {
		summary.Findings = append(summary.Findings, string(tag))
	}
	s.rep.AnalysisComplete(summary)

	s.log.Info("analysis of %s: container=%s video=%s corrupted=%s (%s) severity=%s",
		f.Path, orDash(string(a.Signatures.Container)), orDash(string(a.Signatures.VideoCodec)),
		util.FormatBytes(a.Corruption.CorruptedBytes),
		util.FormatPercent(a.Corruption.Ratio(f.Size)),
		a.Assessment.Level)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
