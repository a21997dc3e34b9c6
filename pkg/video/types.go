// Package video defines the media types shared by the decoding backend.
package video

import (
	"fmt"
	"image"
	"strings"
)

// Resolution is a width/height pair in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// NewResolution builds a Resolution from int dimensions.
func NewResolution(width, height int) Resolution {
	return Resolution{Width: uint32(width), Height: uint32(height)}
}

// CanContain reports whether a buffer of size r can hold a picture of size other.
func (r Resolution) CanContain(other Resolution) bool {
	return r.Width >= other.Width && r.Height >= other.Height
}

// RoundEven rounds both dimensions up to the next even value.
func (r Resolution) RoundEven() Resolution {
	return Resolution{Width: (r.Width + 1) &^ 1, Height: (r.Height + 1) &^ 1}
}

// IsZero reports whether either dimension is zero.
func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// String returns the resolution as WIDTHxHEIGHT.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses a WIDTHxHEIGHT string.
func ParseResolution(s string) (Resolution, error) {
	var w, h uint32
	if _, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(s)), "%dx%d", &w, &h); err != nil {
		return Resolution{}, fmt.Errorf("video: invalid resolution %q: %w", s, err)
	}
	if w == 0 || h == 0 {
		return Resolution{}, fmt.Errorf("video: invalid resolution %q", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// RectResolution returns the size of a visible rectangle.
func RectResolution(r image.Rectangle) Resolution {
	return NewResolution(r.Dx(), r.Dy())
}

// Fourcc is a four character code identifying a memory layout.
type Fourcc uint32

// MakeFourcc packs four characters into a Fourcc, first character in the low byte.
func MakeFourcc(a, b, c, d byte) Fourcc {
	return Fourcc(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the four characters of the code.
func (f Fourcc) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '.'
		}
	}
	return string(b)
}

// Hardware-native and planar layouts the backend knows how to map.
var (
	FourccNV12 = MakeFourcc('N', 'V', '1', '2')
	FourccI420 = MakeFourcc('I', '4', '2', '0')
	Fourcc422H = MakeFourcc('4', '2', '2', 'H')
	Fourcc444P = MakeFourcc('4', '4', '4', 'P')
	FourccP010 = MakeFourcc('P', '0', '1', '0')
	FourccP012 = MakeFourcc('P', '0', '1', '2')
	FourccY210 = MakeFourcc('Y', '2', '1', '0')
	FourccY212 = MakeFourcc('Y', '2', '1', '2')
	FourccY410 = MakeFourcc('Y', '4', '1', '0')
	FourccY412 = MakeFourcc('Y', '4', '1', '2')
)

// DecodedFormat is a canonical layout handed to consumers.
type DecodedFormat int

const (
	// FormatI420 is 8-bit 4:2:0 planar.
	FormatI420 DecodedFormat = iota
	// FormatNV12 is 8-bit 4:2:0 with interleaved chroma.
	FormatNV12
	// FormatI422 is 8-bit 4:2:2 planar.
	FormatI422
	// FormatI444 is 8-bit 4:4:4 planar.
	FormatI444
	// FormatI010 is 10-bit 4:2:0 planar, 16-bit LE LSB-justified samples.
	FormatI010
	// FormatI012 is 12-bit 4:2:0 planar.
	FormatI012
	// FormatI210 is 10-bit 4:2:2 planar.
	FormatI210
	// FormatI212 is 12-bit 4:2:2 planar.
	FormatI212
	// FormatI410 is 10-bit 4:4:4 planar.
	FormatI410
	// FormatI412 is 12-bit 4:4:4 planar.
	FormatI412
)

var decodedFormatNames = map[DecodedFormat]string{
	FormatI420: "i420",
	FormatNV12: "nv12",
	FormatI422: "i422",
	FormatI444: "i444",
	FormatI010: "i010",
	FormatI012: "i012",
	FormatI210: "i210",
	FormatI212: "i212",
	FormatI410: "i410",
	FormatI412: "i412",
}

// String returns the lower-case name of the format.
func (f DecodedFormat) String() string {
	if name, ok := decodedFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("DecodedFormat(%d)", int(f))
}

// ParseDecodedFormat parses a format name such as "i420" or "NV12".
func ParseDecodedFormat(s string) (DecodedFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range decodedFormatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("video: unknown decoded format %q", s)
}

// BitDepth returns the number of significant bits per sample.
func (f DecodedFormat) BitDepth() int {
	switch f {
	case FormatI010, FormatI210, FormatI410:
		return 10
	case FormatI012, FormatI212, FormatI412:
		return 12
	default:
		return 8
	}
}

// BytesPerSample is 1 for 8-bit formats and 2 otherwise.
func (f DecodedFormat) BytesPerSample() int {
	if f.BitDepth() > 8 {
		return 2
	}
	return 1
}

// Subsampling returns whether chroma is halved horizontally and vertically.
func (f DecodedFormat) Subsampling() (horizontal, vertical bool) {
	switch f {
	case FormatI420, FormatNV12, FormatI010, FormatI012:
		return true, true
	case FormatI422, FormatI210, FormatI212:
		return true, false
	default:
		return false, false
	}
}

// FormatForFourcc returns the canonical format a mapped fourcc converts into.
func FormatForFourcc(f Fourcc) (DecodedFormat, bool) {
	switch f {
	case FourccI420:
		return FormatI420, true
	case FourccNV12:
		return FormatNV12, true
	case Fourcc422H:
		return FormatI422, true
	case Fourcc444P:
		return FormatI444, true
	case FourccP010:
		return FormatI010, true
	case FourccP012:
		return FormatI012, true
	case FourccY210:
		return FormatI210, true
	case FourccY212:
		return FormatI212, true
	case FourccY410:
		return FormatI410, true
	case FourccY412:
		return FormatI412, true
	}
	return 0, false
}

// FormatClass groups chroma subsampling and bit depth. Values match VA_RT_FORMAT_* so they can
// be used as a bitmask of supported classes.
type FormatClass uint32

const (
	ClassYUV420    FormatClass = 0x00000001
	ClassYUV422    FormatClass = 0x00000002
	ClassYUV444    FormatClass = 0x00000004
	ClassYUV420_10 FormatClass = 0x00000100
	ClassYUV422_10 FormatClass = 0x00000200
	ClassYUV444_10 FormatClass = 0x00000400
	ClassYUV420_12 FormatClass = 0x00001000
	ClassYUV422_12 FormatClass = 0x00002000
	ClassYUV444_12 FormatClass = 0x00004000
)

// AllClasses lists every class the backend can decode into.
var AllClasses = []FormatClass{
	ClassYUV420, ClassYUV422, ClassYUV444,
	ClassYUV420_10, ClassYUV420_12,
	ClassYUV422_10, ClassYUV422_12,
	ClassYUV444_10, ClassYUV444_12,
}

// String names the class.
func (c FormatClass) String() string {
	switch c {
	case ClassYUV420:
		return "YUV420"
	case ClassYUV422:
		return "YUV422"
	case ClassYUV444:
		return "YUV444"
	case ClassYUV420_10:
		return "YUV420_10"
	case ClassYUV420_12:
		return "YUV420_12"
	case ClassYUV422_10:
		return "YUV422_10"
	case ClassYUV422_12:
		return "YUV422_12"
	case ClassYUV444_10:
		return "YUV444_10"
	case ClassYUV444_12:
		return "YUV444_12"
	}
	return fmt.Sprintf("unknown format class 0x%x", uint32(c))
}

// Has reports whether the mask c includes other.
func (c FormatClass) Has(other FormatClass) bool {
	return other != 0 && c&other == other
}

// DecodedFormat returns the planar format reported in StreamInfo for the class.
func (c FormatClass) DecodedFormat() (DecodedFormat, bool) {
	switch c {
	case ClassYUV420:
		return FormatI420, true
	case ClassYUV422:
		return FormatI422, true
	case ClassYUV444:
		return FormatI444, true
	case ClassYUV420_10:
		return FormatI010, true
	case ClassYUV420_12:
		return FormatI012, true
	case ClassYUV422_10:
		return FormatI210, true
	case ClassYUV422_12:
		return FormatI212, true
	case ClassYUV444_10:
		return FormatI410, true
	case ClassYUV444_12:
		return FormatI412, true
	}
	return 0, false
}

// ClassFor returns the class for a chroma format (1 = 4:2:0, 2 = 4:2:2, 3 = 4:4:4) and bit depth.
func ClassFor(chromaFormat, bitDepth int) (FormatClass, error) {
	type key struct{ chroma, depth int }
	classes := map[key]FormatClass{
		{1, 8}: ClassYUV420, {2, 8}: ClassYUV422, {3, 8}: ClassYUV444,
		{1, 10}: ClassYUV420_10, {2, 10}: ClassYUV422_10, {3, 10}: ClassYUV444_10,
		{1, 12}: ClassYUV420_12, {2, 12}: ClassYUV422_12, {3, 12}: ClassYUV444_12,
	}
	if c, ok := classes[key{chromaFormat, bitDepth}]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("video: no format class for chroma format %d at %d bits", chromaFormat, bitDepth)
}

// Profile identifies a codec profile. Values match VAProfile.
type Profile int32

const (
	ProfileH264Main                Profile = 6
	ProfileH264High                Profile = 7
	ProfileH264ConstrainedBaseline Profile = 13
	ProfileVP8                     Profile = 14
	ProfileHEVCMain                Profile = 17
	ProfileHEVCMain10              Profile = 18
	ProfileVP9Profile0             Profile = 19
	ProfileVP9Profile1             Profile = 20
	ProfileVP9Profile2             Profile = 21
	ProfileVP9Profile3             Profile = 22
	ProfileHEVCMain12              Profile = 23
	ProfileHEVCMain422_10          Profile = 24
	ProfileHEVCMain422_12          Profile = 25
	ProfileHEVCMain444             Profile = 26
	ProfileHEVCMain444_10          Profile = 27
	ProfileHEVCMain444_12          Profile = 28
	ProfileAV1Profile0             Profile = 32
	ProfileAV1Profile1             Profile = 33
)

var profileNames = map[Profile]string{
	ProfileH264Main:                "H264Main",
	ProfileH264High:                "H264High",
	ProfileH264ConstrainedBaseline: "H264ConstrainedBaseline",
	ProfileVP8:                     "VP8Version0_3",
	ProfileHEVCMain:                "HEVCMain",
	ProfileHEVCMain10:              "HEVCMain10",
	ProfileVP9Profile0:             "VP9Profile0",
	ProfileVP9Profile1:             "VP9Profile1",
	ProfileVP9Profile2:             "VP9Profile2",
	ProfileVP9Profile3:             "VP9Profile3",
	ProfileHEVCMain12:              "HEVCMain12",
	ProfileHEVCMain422_10:          "HEVCMain422_10",
	ProfileHEVCMain422_12:          "HEVCMain422_12",
	ProfileHEVCMain444:             "HEVCMain444",
	ProfileHEVCMain444_10:          "HEVCMain444_10",
	ProfileHEVCMain444_12:          "HEVCMain444_12",
	ProfileAV1Profile0:             "AV1Profile0",
	ProfileAV1Profile1:             "AV1Profile1",
}

// KnownProfiles returns the profiles the backend has names for, in ascending order.
func KnownProfiles() []Profile {
	return []Profile{
		ProfileH264Main, ProfileH264High, ProfileH264ConstrainedBaseline, ProfileVP8,
		ProfileHEVCMain, ProfileHEVCMain10, ProfileVP9Profile0, ProfileVP9Profile1,
		ProfileVP9Profile2, ProfileVP9Profile3, ProfileHEVCMain12, ProfileHEVCMain422_10,
		ProfileHEVCMain422_12, ProfileHEVCMain444, ProfileHEVCMain444_10, ProfileHEVCMain444_12,
		ProfileAV1Profile0, ProfileAV1Profile1,
	}
}

// String names the profile.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int32(p))
}

// ParseProfile parses a profile name such as "H264High", ignoring case.
func ParseProfile(s string) (Profile, error) {
	s = strings.TrimSpace(s)
	for p, name := range profileNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("video: unknown profile %q", s)
}

// StreamInfo describes a negotiated stream.
type StreamInfo struct {
	Format            DecodedFormat
	CodedResolution   Resolution
	DisplayResolution Resolution
	MinNumFrames      int
}

// BlockingMode selects whether consumers wait on each frame or poll for readiness.
type BlockingMode int

const (
	// Blocking makes consumers call Sync on every handle.
	Blocking BlockingMode = iota
	// NonBlocking makes consumers poll IsReady before reading.
	NonBlocking
)
