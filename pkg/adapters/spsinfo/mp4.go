package spsinfo

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/hevc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoVideoTrack is returned for MP4 files without an AVC or HEVC video track.
var ErrNoVideoTrack = errors.New("spsinfo: no supported video track")

// IsMP4 reports whether data starts with an ftyp box.
func IsMP4(data []byte) bool {
	return len(data) >= 8 && string(data[4:8]) == "ftyp"
}

// FromBytes parses an MP4 file, or an Annex B stream of the given codec otherwise.
func FromBytes(codec Codec, data []byte) (*Info, error) {
	if IsMP4(data) {
		return FromMP4(bytes.NewReader(data))
	}
	return FromByteStream(codec, data)
}

// FromMP4 parses the SPS stored in the sample description of the first video track.
func FromMP4(r io.ReadSeeker) (*Info, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	var moovs []*mp4.MoovBox
	if file.Moov != nil {
		moovs = append(moovs, file.Moov)
	}
	if file.Init != nil && file.Init.Moov != nil && file.Init.Moov != file.Moov {
		moovs = append(moovs, file.Init.Moov)
	}

	for _, moov := range moovs {
		for _, trak := range moov.Traks {
			info, err := fromTrack(trak)
			if errors.Is(err, ErrNoVideoTrack) {
				continue
			}
			return info, err
		}
	}
	return nil, ErrNoVideoTrack
}

func fromTrack(trak *mp4.TrakBox) (*Info, error) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return nil, ErrNoVideoTrack
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil, ErrNoVideoTrack
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		entry, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		switch {
		case entry.AvcC != nil:
			if len(entry.AvcC.SPSnalus) == 0 {
				return nil, ErrNoSPS
			}
			return ParseAVC(entry.AvcC.SPSnalus[0])
		case entry.HvcC != nil:
			spss := entry.HvcC.GetNalusForType(hevc.NALU_SPS)
			if len(spss) == 0 {
				return nil, ErrNoSPS
			}
			return ParseHEVC(spss[0])
		}
	}
	return nil, ErrNoVideoTrack
}
