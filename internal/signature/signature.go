// Package signature detects container and codec types from byte signatures.
package signature

import (
	"bytes"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/media"
)

// Category classifies what a signature identifies.
type Category int

const (
	CategoryContainer Category = iota
	CategoryVideoCodec
	CategoryAudioCodec
)

func (c Category) String() string {
	switch c {
	case CategoryContainer:
		return "container"
	case CategoryVideoCodec:
		return "video-codec"
	case CategoryAudioCodec:
		return "audio-codec"
	default:
		return "unknown"
	}
}

// Kind names a detected container or codec. The zero value means undetermined.
type Kind string

const (
	KindUnknown  Kind = ""
	KindMP4      Kind = "mp4"
	KindMatroska Kind = "matroska"
	KindAVI      Kind = "avi"
	KindH264     Kind = "h264"
	KindH265     Kind = "h265"
	KindMPEG2    Kind = "mpeg2"
	KindMPEG4    Kind = "mpeg4"
	KindAAC      Kind = "aac"
	KindMP3      Kind = "mp3"
)

// Match records a single signature hit.
type Match struct {
	Category Category
	Kind     Kind
	Name     string // sub-signature name, e.g. "ftyp"
	Offset   uint64
	Pattern  []byte
}

// Result aggregates all signature matches for one file.
type Result struct {
	Matches    []Match
	Container  Kind
	VideoCodec Kind
	AudioCodec Kind
}

// HasContainerSub reports whether a named container sub-signature matched.
func (r *Result) HasContainerSub(name string) bool {
	for _, m := range r.Matches {
		if m.Category == CategoryContainer && m.Name == name {
			return true
		}
	}
	return false
}

// pattern is one entry of the signature table.
type pattern struct {
	category Category
	kind     Kind
	name     string
	bytes    []byte
}

// The signature table. Container tags are searched anywhere in the bounded
// prefix because damaged files routinely shift box boundaries; codec
// signatures are full start-code sequences so false positives stay rare.
var signatureTable = []pattern{
	// ISO-BMFF / MP4 family
	{CategoryContainer, KindMP4, "ftyp", []byte("ftyp")},
	{CategoryContainer, KindMP4, "moov", []byte("moov")},
	{CategoryContainer, KindMP4, "mdat", []byte("mdat")},
	// Matroska / WebM
	{CategoryContainer, KindMatroska, "ebml", []byte{0x1A, 0x45, 0xDF, 0xA3}},
	{CategoryContainer, KindMatroska, "doctype", []byte("matroska")},
	{CategoryContainer, KindMatroska, "segment", []byte{0x18, 0x53, 0x80, 0x67}},
	// RIFF / AVI
	{CategoryContainer, KindAVI, "riff", []byte("RIFF")},
	{CategoryContainer, KindAVI, "avi", []byte("AVI ")},

	// H.264 Annex B parameter sets and IDR
	{CategoryVideoCodec, KindH264, "sps", []byte{0x00, 0x00, 0x00, 0x01, 0x67}},
	{CategoryVideoCodec, KindH264, "pps", []byte{0x00, 0x00, 0x00, 0x01, 0x68}},
	{CategoryVideoCodec, KindH264, "idr", []byte{0x00, 0x00, 0x00, 0x01, 0x65}},
	// H.265 parameter sets
	{CategoryVideoCodec, KindH265, "vps", []byte{0x00, 0x00, 0x00, 0x01, 0x40, 0x01}},
	{CategoryVideoCodec, KindH265, "sps", []byte{0x00, 0x00, 0x00, 0x01, 0x42, 0x01}},
	{CategoryVideoCodec, KindH265, "pps", []byte{0x00, 0x00, 0x00, 0x01, 0x44, 0x01}},
	// MPEG-2 sequence header / GOP header
	{CategoryVideoCodec, KindMPEG2, "seq", []byte{0x00, 0x00, 0x01, 0xB3}},
	{CategoryVideoCodec, KindMPEG2, "gop", []byte{0x00, 0x00, 0x01, 0xB8}},
	// MPEG-4 part 2 visual object sequence / VOP
	{CategoryVideoCodec, KindMPEG4, "vos", []byte{0x00, 0x00, 0x01, 0xB0}},
	{CategoryVideoCodec, KindMPEG4, "vop", []byte{0x00, 0x00, 0x01, 0xB6}},

	// AAC ADTS sync words (MPEG-4 and MPEG-2 variants)
	{CategoryAudioCodec, KindAAC, "adts", []byte{0xFF, 0xF1}},
	{CategoryAudioCodec, KindAAC, "adts-mpeg2", []byte{0xFF, 0xF9}},
	// MP3 frame sync and ID3 tag
	{CategoryAudioCodec, KindMP3, "frame", []byte{0xFF, 0xFB}},
	{CategoryAudioCodec, KindMP3, "id3", []byte("ID3")},
}

// Scan searches bounded prefixes of the file for every known signature and
// declares container/codec kinds from the matches.
func Scan(f *media.File) (*Result, error) {
	prefix, err := f.ReadPrefix(config.CodecScanWindow)
	if err != nil {
		return nil, err
	}

	containerWindow := prefix
	if uint64(len(containerWindow)) > config.ContainerScanWindow {
		containerWindow = containerWindow[:config.ContainerScanWindow]
	}

	result := &Result{}
	for _, p := range signatureTable {
		window := prefix
		if p.category == CategoryContainer {
			window = containerWindow
		}
		result.Matches = append(result.Matches, findAll(window, p)...)
	}

	result.Container = declareKind(result.Matches, CategoryContainer)
	result.VideoCodec = declareKind(result.Matches, CategoryVideoCodec)
	result.AudioCodec = declareKind(result.Matches, CategoryAudioCodec)
	return result, nil
}

// findAll locates up to MaxMatchesPerPattern occurrences of p in window.
func findAll(window []byte, p pattern) []Match {
	var matches []Match
	base := 0
	for len(matches) < config.MaxMatchesPerPattern {
		idx := bytes.Index(window[base:], p.bytes)
		if idx < 0 {
			break
		}
		matches = append(matches, Match{
			Category: p.category,
			Kind:     p.kind,
			Name:     p.name,
			Offset:   uint64(base + idx),
			Pattern:  p.bytes,
		})
		base += idx + 1
	}
	return matches
}

// declareKind picks the kind with the most distinct matched sub-signatures
// in the given category. Ties go to the kind seen first in the table order,
// so ftyp+moov+mdat beats a lone EBML magic. No matches leaves the kind
// undetermined.
func declareKind(matches []Match, category Category) Kind {
	subs := make(map[Kind]map[string]struct{})
	var order []Kind
	for _, m := range matches {
		if m.Category != category {
			continue
		}
		if subs[m.Kind] == nil {
			subs[m.Kind] = make(map[string]struct{})
			order = append(order, m.Kind)
		}
		subs[m.Kind][m.Name] = struct{}{}
	}

	best := KindUnknown
	bestCount := 0
	for _, k := range order {
		if n := len(subs[k]); n > bestCount {
			best = k
			bestCount = n
		}
	}
	return best
}
