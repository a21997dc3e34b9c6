// Package spsinfo derives stream parameters from H.264 and H.265 sequence parameter sets.
package spsinfo

import (
	"errors"
	"fmt"
	"image"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/hevc"

	"github.com/user/vadecode/pkg/video"
)

// Codec selects the SPS syntax.
type Codec int

const (
	CodecH264 Codec = iota
	CodecHEVC
)

func (c Codec) String() string {
	switch c {
	case CodecH264:
		return "h264"
	case CodecHEVC:
		return "hevc"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// ParseCodec parses "h264"/"avc" or "hevc"/"h265".
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "h264", "avc":
		return CodecH264, nil
	case "hevc", "h265":
		return CodecHEVC, nil
	}
	return 0, fmt.Errorf("spsinfo: unknown codec %q", s)
}

var (
	// ErrNoSPS is returned when a byte stream holds no sequence parameter set.
	ErrNoSPS = errors.New("spsinfo: no SPS in stream")
	// ErrUnsupportedProfile is returned for profiles without a hardware decode profile.
	ErrUnsupportedProfile = errors.New("spsinfo: unsupported profile")
)

// Info is a parsed SPS. It implements ports.StreamParams.
type Info struct {
	video.Descriptor
	Codec      Codec
	ProfileIDC int
	Level      int
	ChromaIDC  int
	BitDepth   int
}

// FromByteStream finds the first SPS in an Annex B byte stream and parses it.
func FromByteStream(codec Codec, data []byte) (*Info, error) {
	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) == 0 {
			continue
		}
		switch {
		case codec == CodecH264 && avc.GetNaluType(nalu[0]) == avc.NALU_SPS:
			return ParseAVC(nalu)
		case codec == CodecHEVC && len(nalu) > 1 && hevc.GetNaluType(nalu[0]) == hevc.NALU_SPS:
			return ParseHEVC(nalu)
		}
	}
	return nil, ErrNoSPS
}

// ParseAVC parses an H.264 SPS NAL unit including its header byte.
func ParseAVC(nalu []byte) (*Info, error) {
	sps, err := avc.ParseSPSNALUnit(nalu, false)
	if err != nil {
		return nil, fmt.Errorf("parse H.264 SPS: %w", err)
	}

	chroma := int(sps.ChromaFormatIDC)
	depth := int(sps.BitDepthLumaMinus8) + 8
	profile, err := AVCProfile(int(sps.Profile), uint8(sps.ProfileCompatibility), chroma, depth)
	if err != nil {
		return nil, err
	}
	class, err := video.ClassFor(max(chroma, 1), depth)
	if err != nil {
		return nil, err
	}

	frameMbsOnly := 1
	if !sps.FrameMbsOnlyFlag {
		frameMbsOnly = 0
	}

	// Width and Height are the cropped frame size; the field factor is already applied.
	cropX, cropY := avcCropUnits(chroma, frameMbsOnly == 1)
	widthMbs := (int(sps.Width) + int(sps.FrameCropLeftOffset+sps.FrameCropRightOffset)*cropX) / 16
	heightMbs := (int(sps.Height) + int(sps.FrameCropTopOffset+sps.FrameCropBottomOffset)*cropY) / 16
	left := int(sps.FrameCropLeftOffset) * cropX
	top := int(sps.FrameCropTopOffset) * cropY

	return &Info{
		Descriptor: video.Descriptor{
			StreamProfile: profile,
			Class:         class,
			Coded:         video.NewResolution(widthMbs*16, heightMbs*16),
			Visible:       image.Rect(left, top, left+int(sps.Width), top+int(sps.Height)),
			MinSurfaces:   AVCMinSurfaces(int(sps.Level), widthMbs, heightMbs, int(sps.NumRefFrames)),
		},
		Codec:      CodecH264,
		ProfileIDC: int(sps.Profile),
		Level:      int(sps.Level),
		ChromaIDC:  chroma,
		BitDepth:   depth,
	}, nil
}

// ParseHEVC parses an H.265 SPS NAL unit including its two header bytes.
func ParseHEVC(nalu []byte) (*Info, error) {
	sps, err := hevc.ParseSPSNALUnit(nalu)
	if err != nil {
		return nil, fmt.Errorf("parse H.265 SPS: %w", err)
	}

	chroma := int(sps.ChromaFormatIDC)
	depth := int(sps.BitDepthLumaMinus8) + 8
	profileIDC := int(sps.ProfileTierLevel.GeneralProfileIDC)
	profile, err := HEVCProfile(profileIDC, chroma, depth)
	if err != nil {
		return nil, err
	}
	class, err := video.ClassFor(chroma, depth)
	if err != nil {
		return nil, err
	}

	w, h := int(sps.PicWidthInLumaSamples), int(sps.PicHeightInLumaSamples)
	visible := image.Rect(0, 0, w, h)
	if sps.ConformanceWindowFlag {
		subW, subH := hevcChromaScale(chroma)
		win := sps.ConformanceWindow
		visible = image.Rect(
			subW*int(win.LeftOffset), subH*int(win.TopOffset),
			w-subW*int(win.RightOffset), h-subH*int(win.BottomOffset),
		)
	}

	return &Info{
		Descriptor: video.Descriptor{
			StreamProfile: profile,
			Class:         class,
			Coded:         video.NewResolution(w, h),
			Visible:       visible,
			MinSurfaces:   HEVCMinSurfaces,
		},
		Codec:      CodecHEVC,
		ProfileIDC: profileIDC,
		Level:      int(sps.ProfileTierLevel.GeneralLevelIDC),
		ChromaIDC:  chroma,
		BitDepth:   depth,
	}, nil
}

func avcCropUnits(chroma int, frameMbsOnly bool) (int, int) {
	fieldFactor := 1
	if !frameMbsOnly {
		fieldFactor = 2
	}
	switch chroma {
	case 0:
		return 1, fieldFactor
	case 1:
		return 2, 2 * fieldFactor
	case 2:
		return 2, fieldFactor
	default:
		return 1, fieldFactor
	}
}

func hevcChromaScale(chroma int) (int, int) {
	switch chroma {
	case 1:
		return 2, 2
	case 2:
		return 2, 1
	default:
		return 1, 1
	}
}
