package repair

import (
	"context"
	"fmt"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/ffmpeg"
	"github.com/vidmend/vidmend/internal/ffprobe"
	"github.com/vidmend/vidmend/internal/reporter"
	"github.com/vidmend/vidmend/internal/util"
)

// Verifier checks a repair candidate before it may be promoted: ffprobe
// must open it and report a positive duration and a video stream, and
// ffmpeg must decode its leading second without error.
type Verifier struct {
	Prober *ffprobe.Prober
	FFmpeg *ffmpeg.Executor
}

// Verify runs both checks against the candidate. The returned summary
// always carries every step that ran; info is non-nil whenever the probe
// step passed.
func (v *Verifier) Verify(ctx context.Context, candidatePath string) (*reporter.VerificationSummary, *ffprobe.MediaInfo, error) {
	summary := &reporter.VerificationSummary{Passed: true}

	info, err := v.Prober.Probe(ctx, candidatePath)
	switch {
	case err != nil:
		summary.Passed = false
		summary.Steps = append(summary.Steps, reporter.VerificationStep{
			Name:    "probe",
			Details: err.Error(),
		})
		return summary, nil, errors.NewVerificationError("candidate is not probeable: " + err.Error())
	case info.Duration <= 0:
		summary.Passed = false
		summary.Steps = append(summary.Steps, reporter.VerificationStep{
			Name:    "probe",
			Details: "no duration reported",
		})
		return summary, nil, errors.NewVerificationError("candidate reports zero duration")
	case !info.HasVideo():
		summary.Passed = false
		summary.Steps = append(summary.Steps, reporter.VerificationStep{
			Name:    "probe",
			Details: "no video stream",
		})
		return summary, nil, errors.NewVerificationError("candidate has no video stream")
	default:
		summary.Steps = append(summary.Steps, reporter.VerificationStep{
			Name:    "probe",
			Passed:  true,
			Details: fmt.Sprintf("duration %s", util.FormatDuration(info.Duration)),
		})
	}

	_, err = v.FFmpeg.Run(ctx, ffmpeg.DecodeCheckArgs(candidatePath, config.VerifyDecodeSeconds))
	if err != nil {
		summary.Passed = false
		summary.Steps = append(summary.Steps, reporter.VerificationStep{
			Name:    "decode",
			Details: err.Error(),
		})
		return summary, info, errors.NewVerificationError("candidate does not decode: " + err.Error())
	}
	summary.Steps = append(summary.Steps, reporter.VerificationStep{
		Name:    "decode",
		Passed:  true,
		Details: fmt.Sprintf("leading %ds decoded", config.VerifyDecodeSeconds),
	})

	return summary, info, nil
}
