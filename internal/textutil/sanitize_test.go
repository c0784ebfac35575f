package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  talk.wav ":          "talk.wav",
		"a:b*c?.wav":           "a-b-c.wav",
		"quote\"d<>|.mp3":      "quoted.mp3",
		"tab\tname\x00.wav":    "tabname.wav",
		"..":                   "",
		"":                     "",
		"folder/sub\\file.wav": "folder-sub-file.wav",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadFileName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":       "passwd",
		"C:\\Users\\me\\rec.wav": "rec.wav",
		"meeting notes.m4a":      "meeting notes.m4a",
		"/":                      "upload",
		"":                       "upload",
	}
	for in, want := range cases {
		if got := UploadFileName(in); got != want {
			t.Fatalf("UploadFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadFileNameTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("é", 300) + ".wav"
	got := UploadFileName(long)
	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".wav") {
		t.Fatalf("expected extension kept, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8, got %q", got)
	}
}
