// Package repair orchestrates corruption analysis, strategy execution and
// output verification for a single media file.
package repair

import (
	"github.com/vidmend/vidmend/internal/corruption"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/media"
	"github.com/vidmend/vidmend/internal/mp4"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/planner"
	"github.com/vidmend/vidmend/internal/signature"
)

// Analysis bundles every analysis-stage finding for one file.
type Analysis struct {
	Signatures *signature.Result
	Walk       *mp4.WalkResult // nil unless the container is ISO-BMFF
	Codec      nal.Codec
	Units      []nal.Unit
	Corruption *corruption.Report
	Assessment *planner.Assessment
}

// IsMP4 reports whether the container signature resolved to ISO-BMFF.
func (a *Analysis) IsMP4() bool {
	return a.Signatures != nil && a.Signatures.Container == signature.KindMP4
}

// HasH26xVideo reports whether a scannable elementary stream codec was
// identified.
func (a *Analysis) HasH26xVideo() bool {
	if a.Signatures == nil {
		return false
	}
	return a.Signatures.VideoCodec == signature.KindH264 ||
		a.Signatures.VideoCodec == signature.KindH265
}

// Analyze runs the full analysis pipeline over an open file: signature
// scan, container walk, stream unit scan, corruption detection, and finally
// the recovery plan.
func Analyze(f *media.File) (*Analysis, error) {
	sigs, err := signature.Scan(f)
	if err != nil {
		return nil, errors.NewAnalysisError("signature scan failed", err)
	}

	a := &Analysis{Signatures: sigs}

	if a.IsMP4() {
		walk, err := mp4.Walk(f)
		if err != nil {
			return nil, errors.NewAnalysisError("container walk failed", err)
		}
		a.Walk = walk
	}

	if a.HasH26xVideo() {
		a.Codec = nal.CodecH264
		if sigs.VideoCodec == signature.KindH265 {
			a.Codec = nal.CodecH265
		}
		units, err := nal.Scan(f, a.Codec)
		if err != nil {
			return nil, errors.NewAnalysisError("stream unit scan failed", err)
		}
		a.Units = units
	}

	report, err := corruption.Detect(f, a.IsMP4())
	if err != nil {
		return nil, errors.NewAnalysisError("corruption scan failed", err)
	}
	a.Corruption = report

	a.Assessment = planner.Assess(planner.Input{
		FileSize:   f.Size,
		Signatures: a.Signatures,
		Walk:       a.Walk,
		Units:      a.Units,
		Corruption: a.Corruption,
	})

	return a, nil
}
