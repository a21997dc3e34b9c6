package video

import "image"

// Descriptor is a plain stream parameter set, for callers that already know the stream
// properties instead of deriving them from a parsed sequence header.
type Descriptor struct {
	StreamProfile Profile
	Class         FormatClass
	Coded         Resolution
	Visible       image.Rectangle
	MinSurfaces   int
}

// Profile returns the stream profile.
func (d Descriptor) Profile() (Profile, error) {
	return d.StreamProfile, nil
}

// FormatClass returns the stream format class.
func (d Descriptor) FormatClass() (FormatClass, error) {
	return d.Class, nil
}

// MinNumSurfaces returns the number of surfaces the stream needs in flight.
func (d Descriptor) MinNumSurfaces() int {
	return d.MinSurfaces
}

// CodedSize returns the coded size of the stream.
func (d Descriptor) CodedSize() Resolution {
	return d.Coded
}

// VisibleRect returns the visible rectangle, defaulting to the whole coded area.
func (d Descriptor) VisibleRect() image.Rectangle {
	if d.Visible.Empty() {
		return image.Rect(0, 0, int(d.Coded.Width), int(d.Coded.Height))
	}
	return d.Visible
}
