package negotiate

import (
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// FormatMap ties a format class to a layout the device can map into and the canonical
// format that layout converts to.
type FormatMap struct {
	Class  video.FormatClass
	Fourcc video.Fourcc
	Format video.DecodedFormat
}

// formatMaps is in priority order: the first entry for a class is its default.
var formatMaps = []FormatMap{
	{video.ClassYUV420, video.FourccNV12, video.FormatNV12},
	{video.ClassYUV420, video.FourccI420, video.FormatI420},
	{video.ClassYUV422, video.Fourcc422H, video.FormatI422},
	{video.ClassYUV444, video.Fourcc444P, video.FormatI444},
	{video.ClassYUV420_10, video.FourccP010, video.FormatI010},
	{video.ClassYUV420_12, video.FourccP012, video.FormatI012},
	{video.ClassYUV422_10, video.FourccY210, video.FormatI210},
	{video.ClassYUV422_12, video.FourccY212, video.FormatI212},
	{video.ClassYUV444_10, video.FourccY410, video.FormatI410},
	{video.ClassYUV444_12, video.FourccY412, video.FormatI412},
}

// FormatMaps returns the static format table in priority order.
func FormatMaps() []FormatMap {
	return append([]FormatMap(nil), formatMaps...)
}

// LookupFormat finds the table entry producing a canonical format.
func LookupFormat(f video.DecodedFormat) (FormatMap, bool) {
	for _, m := range formatMaps {
		if m.Format == f {
			return m, true
		}
	}
	return FormatMap{}, false
}

func defaultFormat(class video.FormatClass) (FormatMap, bool) {
	for _, m := range formatMaps {
		if m.Class == class {
			return m, true
		}
	}
	return FormatMap{}, false
}

func findImageFormat(formats []ports.ImageFormat, fourcc video.Fourcc) (ports.ImageFormat, bool) {
	for _, f := range formats {
		if f.Fourcc == fourcc {
			return f, true
		}
	}
	return ports.ImageFormat{}, false
}

// SupportedFormats returns the table entries for class that the decode entrypoint of profile
// accepts and that the device can map into, in priority order.
func SupportedFormats(dev ports.Device, class video.FormatClass, profile video.Profile) ([]FormatMap, error) {
	mask, err := dev.SupportedFormatClasses(profile)
	if err != nil {
		return nil, &NegotiationError{Capability: "profile " + profile.String(), Err: err}
	}
	if !mask.Has(class) {
		return nil, &NegotiationError{Capability: "format class " + class.String() + " for " + profile.String()}
	}

	images, err := dev.QueryImageFormats()
	if err != nil {
		return nil, &HardwareError{Op: "query image formats", Err: err}
	}

	var supported []FormatMap
	for _, m := range formatMaps {
		if m.Class != class {
			continue
		}
		if _, ok := findImageFormat(images, m.Fourcc); ok {
			supported = append(supported, m)
		}
	}
	return supported, nil
}
