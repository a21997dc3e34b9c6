package spsinfo

import (
	"fmt"

	"github.com/user/vadecode/pkg/video"
)

// H.264 profile_idc values.
const (
	avcBaseline = 66
	avcMain     = 77
	avcExtended = 88
	avcHigh     = 100
)

// HEVC general_profile_idc values.
const (
	hevcMain   = 1
	hevcMain10 = 2
	hevcRExt   = 4
)

const constraintSet1 = 0x40

// AVCProfile maps H.264 profile_idc, the constraint flags byte, chroma_format_idc and luma
// bit depth to a hardware profile. Baseline streams decode as constrained baseline.
func AVCProfile(profileIDC int, constraints uint8, chroma, bitDepth int) (video.Profile, error) {
	if chroma > 1 || bitDepth != 8 {
		return 0, fmt.Errorf("%w: H.264 profile %d with chroma format %d at %d bits", ErrUnsupportedProfile, profileIDC, chroma, bitDepth)
	}
	switch profileIDC {
	case avcBaseline:
		return video.ProfileH264ConstrainedBaseline, nil
	case avcMain:
		return video.ProfileH264Main, nil
	case avcExtended:
		if constraints&constraintSet1 != 0 {
			return video.ProfileH264Main, nil
		}
	case avcHigh:
		return video.ProfileH264High, nil
	}
	return 0, fmt.Errorf("%w: H.264 profile %d", ErrUnsupportedProfile, profileIDC)
}

// HEVCProfile maps general_profile_idc, chroma_format_idc and luma bit depth to a hardware
// profile. Range extension streams are split by sampling and depth.
func HEVCProfile(profileIDC, chroma, bitDepth int) (video.Profile, error) {
	switch {
	case profileIDC == hevcMain && chroma == 1 && bitDepth == 8:
		return video.ProfileHEVCMain, nil
	case profileIDC == hevcMain10 && chroma == 1 && bitDepth <= 10:
		return video.ProfileHEVCMain10, nil
	case profileIDC == hevcRExt:
		type key struct{ chroma, depth int }
		rext := map[key]video.Profile{
			{1, 12}: video.ProfileHEVCMain12,
			{2, 10}: video.ProfileHEVCMain422_10,
			{2, 12}: video.ProfileHEVCMain422_12,
			{3, 8}:  video.ProfileHEVCMain444,
			{3, 10}: video.ProfileHEVCMain444_10,
			{3, 12}: video.ProfileHEVCMain444_12,
		}
		if p, ok := rext[key{chroma, bitDepth}]; ok {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: HEVC profile %d with chroma format %d at %d bits", ErrUnsupportedProfile, profileIDC, chroma, bitDepth)
}

// HEVCMinSurfaces is the largest HEVC DPB plus the picture being decoded.
const HEVCMinSurfaces = 16 + 1

// maxDpbMbs is MaxDpbMbs from H.264 table A-1, keyed by level_idc.
var maxDpbMbs = map[int]int{
	9: 396, 10: 396, 11: 900, 12: 2376, 13: 2376,
	20: 2376, 21: 4752, 22: 8100,
	30: 8100, 31: 18000, 32: 20480,
	40: 32768, 41: 32768, 42: 34816,
	50: 110400, 51: 184320, 52: 184320,
	60: 696320, 61: 696320, 62: 696320,
}

// AVCMinSurfaces returns the DPB size implied by the level and frame size, at least the
// number of reference frames, plus one for the picture being decoded.
func AVCMinSurfaces(level, widthMbs, heightMbs, numRefFrames int) int {
	dpb := 16
	if mbs, ok := maxDpbMbs[level]; ok && widthMbs > 0 && heightMbs > 0 {
		dpb = min(mbs/(widthMbs*heightMbs), 16)
	}
	dpb = max(dpb, numRefFrames, 1)
	return dpb + 1
}
