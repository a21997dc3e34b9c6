package spsinfo

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/vadecode/pkg/video"
)

var testPPS = []byte{0x68, 0xce, 0x38, 0x80}

func buildInit(t *testing.T, sps []byte) []byte {
	t.Helper()
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "und")
	if err := init.Moov.Trak.SetAVCDescriptor("avc1", [][]byte{sps}, [][]byte{testPPS}, true); err != nil {
		t.Fatalf("SetAVCDescriptor: %v", err)
	}
	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		t.Fatalf("encode init segment: %v", err)
	}
	return buf.Bytes()
}

func TestFromMP4(t *testing.T) {
	sps := buildAVCSPS(avcParams{profile: 77, level: 31, widthMbs: 40, heightMbs: 30, numRef: 2})
	data := buildInit(t, sps)

	if !IsMP4(data) {
		t.Fatal("expected init segment to be detected as MP4")
	}
	info, err := FromBytes(CodecHEVC, data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if info.Codec != CodecH264 {
		t.Errorf("expected the codec of the track, got %s", info.Codec)
	}
	if info.StreamProfile != video.ProfileH264Main {
		t.Errorf("expected H264Main, got %s", info.StreamProfile)
	}
	if info.CodedSize() != video.NewResolution(640, 480) {
		t.Errorf("expected 640x480, got %s", info.CodedSize())
	}
}

func TestFromMP4_NoVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "und")
	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		t.Fatalf("encode init segment: %v", err)
	}

	if _, err := FromMP4(bytes.NewReader(buf.Bytes())); !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}
}

func TestIsMP4(t *testing.T) {
	if IsMP4(annexB(testPPS)) {
		t.Error("Annex B stream detected as MP4")
	}
	if IsMP4([]byte("ftyp")) {
		t.Error("short input detected as MP4")
	}
}
