package repair

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/ffmpeg"
	"github.com/vidmend/vidmend/internal/media"
	"github.com/vidmend/vidmend/internal/mp4"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/planner"
	"github.com/vidmend/vidmend/internal/signature"
	"github.com/vidmend/vidmend/internal/util"
)

// job carries the per-file state shared by every strategy attempt.
type job struct {
	input     *media.File
	analysis  *Analysis
	tmp       *util.TempDir
	stem      string
	candidate string
}

// execute dispatches one strategy attempt. The candidate path is fresh for
// each attempt; any intermediate files go through job.tmp and are cleaned
// up with it.
func (s *Session) execute(ctx context.Context, strategy planner.Strategy, j *job) error {
	switch strategy {
	case planner.StrategyQuickRemux:
		return s.runQuickRemux(ctx, j)
	case planner.StrategyContainerRebuild:
		return s.runContainerRebuild(ctx, j)
	case planner.StrategyStreamExtract:
		return s.runStreamExtract(ctx, j)
	case planner.StrategyGOPRebuild:
		return s.runGOPRebuild(ctx, j)
	case planner.StrategyDeepRecovery:
		return s.runDeepRecovery(ctx, j)
	case planner.StrategyFallbackChain:
		return s.runFallbackChain(ctx, j)
	default:
		return errors.NewStrategyFailedError(strategy.String(), fmt.Errorf("unimplemented strategy"))
	}
}

// runQuickRemux copies every stream into a fresh container, first strictly
// and then with permissive demuxing when the strict pass rejects the input.
func (s *Session) runQuickRemux(ctx context.Context, j *job) error {
	_, err := s.ffmpeg.Run(ctx, ffmpeg.RemuxArgs(j.input.Path, j.candidate, false))
	if err == nil {
		return nil
	}
	s.log.Recovery("strict remux rejected %s, retrying permissively: %v", j.input.Path, err)

	_ = os.Remove(j.candidate)
	_, err = s.ffmpeg.Run(ctx, ffmpeg.RemuxArgs(j.input.Path, j.candidate, true))
	return err
}

// runContainerRebuild assembles a fresh ftyp/moov/mdat sequence: valid
// boxes from the damaged file are reused, the rest are synthesized. The
// rebuilt file then goes through a permissive remux so real timing is
// derived from the bitstream.
func (s *Session) runContainerRebuild(ctx context.Context, j *job) error {
	walk := j.analysis.Walk
	if walk == nil {
		return errors.NewStrategyFailedError(planner.StrategyContainerRebuild.String(),
			fmt.Errorf("no container structure to rebuild"))
	}

	rebuilt := j.tmp.ScopedPath(j.stem, "rebuilt", ".mp4")
	out, err := os.Create(rebuilt)
	if err != nil {
		return errors.NewIOError("cannot create rebuild scratch file", err)
	}
	defer out.Close()

	if err := s.writeFtyp(out, j, walk); err != nil {
		return err
	}
	if err := s.writeMoov(ctx, out, j, walk); err != nil {
		return err
	}
	if err := s.writeMdat(out, j, walk); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return errors.NewIOError("cannot finish rebuild scratch file", err)
	}

	_, err = s.ffmpeg.Run(ctx, ffmpeg.RemuxArgs(rebuilt, j.candidate, true))
	return err
}

func (s *Session) writeFtyp(out io.Writer, j *job, walk *mp4.WalkResult) error {
	if blk := walk.Find("ftyp"); blk != nil {
		s.log.Recovery("reusing ftyp at %d (%d bytes)", blk.Offset, blk.Size)
		return copyRange(out, j.input, blk.Offset, blk.End())
	}
	s.log.Recovery("synthesizing ftyp")
	_, err := out.Write(mp4.SynthesizeFtyp())
	return err
}

func (s *Session) writeMoov(ctx context.Context, out io.Writer, j *job, walk *mp4.WalkResult) error {
	if blk := walk.Find("moov"); blk != nil && mp4.CheckMoovStructure(j.input, *blk) {
		s.log.Recovery("reusing moov at %d (%d bytes)", blk.Offset, blk.Size)
		return copyRange(out, j.input, blk.Offset, blk.End())
	}

	params := mp4.MoovParams{
		IncludeAudio: j.analysis.Signatures.AudioCodec != signature.KindUnknown,
	}
	// Dimensions from a best-effort probe of the damaged file, when it
	// yields any.
	if info, err := s.prober.Probe(ctx, j.input.Path); err == nil {
		if info.Width > 0 && info.Height > 0 {
			params.Width = uint32(info.Width)
			params.Height = uint32(info.Height)
		}
		params.DurationSecs = info.Duration
	}

	s.log.Recovery("synthesizing moov (%dx%d, audio=%v)", params.Width, params.Height, params.IncludeAudio)
	_, err := out.Write(mp4.SynthesizeMoov(params))
	return err
}

func (s *Session) writeMdat(out *os.File, j *job, walk *mp4.WalkResult) error {
	if blk := walk.Find("mdat"); blk != nil {
		s.log.Recovery("reusing mdat at %d (%d bytes)", blk.Offset, blk.Size)
		return copyRange(out, j.input, blk.Offset, blk.End())
	}

	if len(j.analysis.Units) == 0 {
		return errors.NewStrategyFailedError(planner.StrategyContainerRebuild.String(),
			fmt.Errorf("no mdat and no stream units to rebuild one from"))
	}

	// Rebuild the payload from every stream unit in offset order, with the
	// size field patched once the payload length is known.
	field, err := mp4.BeginFileBox(out, "mdat")
	if err != nil {
		return errors.NewIOError("cannot start mdat box", err)
	}
	written, err := writeUnits(out, j.input, j.analysis.Units)
	if err != nil {
		return err
	}
	if written == 0 {
		return errors.NewStrategyFailedError(planner.StrategyContainerRebuild.String(),
			fmt.Errorf("every stream unit was unreadable"))
	}
	s.log.Recovery("rebuilt mdat from %d stream units", written)
	return field.Patch(out)
}

// runStreamExtract dumps the raw video elementary stream, parameter sets
// first, and wraps it back into a container. When the original carries
// audio, a second pass tries to bring it along; failure there falls back to
// video only.
func (s *Session) runStreamExtract(ctx context.Context, j *job) error {
	return s.rewrapUnits(ctx, j, "stream", nal.ExtractionOrder(j.analysis.Units, j.analysis.Codec), true)
}

// runGOPRebuild keeps only keyframe-anchored groups plus parameter sets.
// Anchorless groups would decode to garbage, so they are dropped outright.
func (s *Session) runGOPRebuild(ctx context.Context, j *job) error {
	units := nal.DecodableUnits(j.analysis.Units, j.analysis.Codec)
	if nal.KeyframeCount(units, j.analysis.Codec) == 0 {
		return errors.NewStrategyFailedError(planner.StrategyGOPRebuild.String(),
			fmt.Errorf("no keyframe-anchored groups survive"))
	}
	return s.rewrapUnits(ctx, j, "gop", units, false)
}

func (s *Session) rewrapUnits(ctx context.Context, j *job, label string, units []nal.Unit, withAudio bool) error {
	if len(units) == 0 {
		return errors.NewStrategyFailedError(label, fmt.Errorf("no stream units found"))
	}

	ext, rawFormat := ".h264", "h264"
	if j.analysis.Codec == nal.CodecH265 {
		ext, rawFormat = ".h265", "hevc"
	}

	rawPath := j.tmp.ScopedPath(j.stem, label, ext)
	raw, err := os.Create(rawPath)
	if err != nil {
		return errors.NewIOError("cannot create bitstream scratch file", err)
	}
	written, err := writeUnits(raw, j.input, units)
	if cerr := raw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if written == 0 {
		return errors.NewStrategyFailedError(label, fmt.Errorf("every stream unit was unreadable"))
	}
	s.log.Recovery("extracted %d of %d stream units", written, len(units))

	if withAudio && j.analysis.Signatures.AudioCodec != signature.KindUnknown {
		_, err = s.ffmpeg.Run(ctx, ffmpeg.RawBitstreamWithAudioArgs(rawPath, rawFormat, j.input.Path, j.candidate))
		if err == nil {
			return nil
		}
		s.log.Recovery("audio recovery failed, keeping video only: %v", err)
		_ = os.Remove(j.candidate)
	}

	_, err = s.ffmpeg.Run(ctx, ffmpeg.RawBitstreamArgs(rawPath, rawFormat, j.candidate))
	return err
}

// runDeepRecovery slices the undamaged regions into independent files,
// remuxes each permissively, and concatenates whatever survives.
func (s *Session) runDeepRecovery(ctx context.Context, j *job) error {
	ranges := j.analysis.Corruption.ValidRanges(j.input.Size)
	if len(ranges) == 0 {
		return errors.NewStrategyFailedError(planner.StrategyDeepRecovery.String(),
			fmt.Errorf("no usable regions survive corruption filtering"))
	}

	var segments []string
	for i, rng := range ranges {
		rawPath := j.tmp.ScopedPath(j.stem, fmt.Sprintf("region%03d", i), ".bin")
		if err := writeRange(rawPath, j.input, rng.Start, rng.End); err != nil {
			s.log.Recovery("region %d unreadable, skipping: %v", i, err)
			continue
		}

		segPath := j.tmp.ScopedPath(j.stem, fmt.Sprintf("region%03d", i), ".mp4")
		if _, err := s.ffmpeg.Run(ctx, ffmpeg.RemuxArgs(rawPath, segPath, true)); err != nil {
			s.log.Recovery("region %d did not remux, skipping: %v", i, err)
			continue
		}
		segments = append(segments, segPath)
	}

	if len(segments) == 0 {
		return errors.NewStrategyFailedError(planner.StrategyDeepRecovery.String(),
			fmt.Errorf("no region produced a playable segment"))
	}
	s.log.Recovery("recovered %d of %d regions", len(segments), len(ranges))

	return s.concatSegments(ctx, j, "regions", segments)
}

// runFallbackChain escalates through three last-resort attempts: lenient
// remux, fixed-interval segmentation plus concat, and a conservative full
// re-encode. The first candidate reporting a nonzero duration wins.
func (s *Session) runFallbackChain(ctx context.Context, j *job) error {
	attempt := func(name string, run func() error) (bool, error) {
		_ = os.Remove(j.candidate)
		if err := run(); err != nil {
			s.log.Recovery("fallback %s failed: %v", name, err)
			return false, err
		}
		d, err := s.prober.Duration(ctx, j.candidate)
		if err != nil || d <= 0 {
			s.log.Recovery("fallback %s produced no duration, discarding", name)
			return false, nil
		}
		s.log.Recovery("fallback %s produced %s of media", name, util.FormatDuration(d))
		return true, nil
	}

	if ok, _ := attempt("lenient-remux", func() error {
		_, err := s.ffmpeg.Run(ctx, ffmpeg.RemuxArgs(j.input.Path, j.candidate, true))
		return err
	}); ok {
		return nil
	}

	if ok, _ := attempt("segmented-remux", func() error {
		return s.segmentedRemux(ctx, j)
	}); ok {
		return nil
	}

	if ok, err := attempt("re-encode", func() error {
		_, err := s.ffmpeg.Run(ctx, ffmpeg.ReencodeArgs(j.input.Path, j.candidate))
		return err
	}); ok {
		return nil
	} else if err != nil {
		return err
	}
	return errors.NewStrategyFailedError(planner.StrategyFallbackChain.String(),
		fmt.Errorf("every fallback attempt was discarded"))
}

// segmentedRemux cuts the input into fixed-interval pieces, keeps the ones
// that survive a copy, and concatenates them. Damage is confined to the
// intervals that contain it.
func (s *Session) segmentedRemux(ctx context.Context, j *job) error {
	duration, err := s.prober.Duration(ctx, j.input.Path)
	if err != nil || duration <= 0 {
		return fmt.Errorf("input duration unknown, cannot segment")
	}

	var segments []string
	interval := float64(config.FallbackSegmentSeconds)
	for i := 0; float64(i)*interval < duration; i++ {
		segPath := j.tmp.ScopedPath(j.stem, fmt.Sprintf("cut%03d", i), ".mp4")
		args := ffmpeg.CutArgs(j.input.Path, float64(i)*interval, interval, segPath)
		if _, err := s.ffmpeg.Run(ctx, args); err != nil {
			s.log.Recovery("cut %d failed, skipping: %v", i, err)
			continue
		}
		segments = append(segments, segPath)
	}

	if len(segments) == 0 {
		return fmt.Errorf("no interval survived")
	}
	return s.concatSegments(ctx, j, "cuts", segments)
}

// concatSegments writes an ffconcat list for the segments and joins them
// into the candidate.
func (s *Session) concatSegments(ctx context.Context, j *job, label string, segments []string) error {
	listPath := j.tmp.ScopedPath(j.stem, label, ".txt")
	list, err := os.Create(listPath)
	if err != nil {
		return errors.NewIOError("cannot create concat list", err)
	}
	fmt.Fprintln(list, "ffconcat version 1.0")
	for _, seg := range segments {
		fmt.Fprintf(list, "file '%s'\n", seg)
	}
	if err := list.Close(); err != nil {
		return errors.NewIOError("cannot finish concat list", err)
	}

	_, err = s.ffmpeg.Run(ctx, ffmpeg.ConcatArgs(listPath, j.candidate))
	return err
}

// writeUnits copies stream units to w in the given order, skipping any unit
// that cannot be read in full. Returns how many units were written.
func writeUnits(w io.Writer, f *media.File, units []nal.Unit) (int, error) {
	written := 0
	for _, u := range units {
		if u.Size == 0 || u.Offset+u.Size > f.Size {
			continue
		}
		buf := make([]byte, u.Size)
		if _, err := f.ReadAt(buf, int64(u.Offset)); err != nil {
			continue // truncated or unreadable unit, skip
		}
		if _, err := w.Write(buf); err != nil {
			return written, errors.NewIOError("cannot write stream unit", err)
		}
		written++
	}
	return written, nil
}

// copyRange streams [start, end) of f into w.
func copyRange(w io.Writer, f *media.File, start, end uint64) error {
	section := io.NewSectionReader(f, int64(start), int64(end-start))
	if _, err := io.Copy(w, section); err != nil {
		return errors.NewIOError("cannot copy source range", err)
	}
	return nil
}

// writeRange copies [start, end) of f into a new file at path.
func writeRange(path string, f *media.File, start, end uint64) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("cannot create region file", err)
	}
	if err := copyRange(out, f, start, end); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
