// Package metadata builds chapter markers and writes them in FFmpeg's
// FFMETADATA1 format for the container muxer.
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/book"
)

// DefaultDescription is written when Tags.Description is empty.
const DefaultDescription = "Made with epub2tts"

// Marker is one chapter span in milliseconds from the start of the book.
type Marker struct {
	Title string
	Start int64
	End   int64
}

// Tags are the book-level metadata fields.
type Tags struct {
	Artist      string
	Album       string
	Title       string
	Description string
}

// Markers lays durations end to end. Titles shorter than durations are
// padded with numbered labels, and BlankTitle becomes "Chapter N".
func Markers(durations []time.Duration, titles []string) []Marker {
	out := make([]Marker, 0, len(durations))
	var start int64
	for i, d := range durations {
		ms := d.Milliseconds()
		out = append(out, Marker{Title: label(i, titles), Start: start, End: start + ms})
		start += ms
	}
	return out
}

func label(i int, titles []string) string {
	if i < len(titles) {
		if t := strings.TrimSpace(titles[i]); t != "" && t != book.BlankTitle {
			return t
		}
	}
	return fmt.Sprintf("Chapter %d", i+1)
}

// MarkersFromFiles reads each WAV header for its duration.
func MarkersFromFiles(paths, titles []string) ([]Marker, error) {
	durations := make([]time.Duration, len(paths))
	for i, p := range paths {
		d, err := audio.FileDuration(p)
		if err != nil {
			return nil, err
		}
		durations[i] = d
	}
	return Markers(durations, titles), nil
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`=`, `\=`,
	`;`, `\;`,
	`#`, `\#`,
	"\n", "\\\n",
)

// Escape quotes the characters FFMETADATA treats specially.
func Escape(s string) string {
	return escaper.Replace(s)
}

// WriteFFMetadata writes tags and markers. Times use a 1/1000 timebase.
func WriteFFMetadata(w io.Writer, tags Tags, markers []Marker) error {
	if tags.Description == "" {
		tags.Description = DefaultDescription
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, ";FFMETADATA1")
	fmt.Fprintf(bw, "ARTIST=%s\n", Escape(tags.Artist))
	fmt.Fprintf(bw, "ALBUM=%s\n", Escape(tags.Album))
	fmt.Fprintf(bw, "TITLE=%s\n", Escape(tags.Title))
	fmt.Fprintf(bw, "DESCRIPTION=%s\n", Escape(tags.Description))
	for _, m := range markers {
		fmt.Fprintln(bw, "[CHAPTER]")
		fmt.Fprintln(bw, "TIMEBASE=1/1000")
		fmt.Fprintf(bw, "START=%d\n", m.Start)
		fmt.Fprintf(bw, "END=%d\n", m.End)
		fmt.Fprintf(bw, "title=%s\n", Escape(m.Title))
	}
	return bw.Flush()
}

// WriteFile writes the metadata file at path.
func WriteFile(path string, tags Tags, markers []Marker) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFFMetadata(f, tags, markers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
