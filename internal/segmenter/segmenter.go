// Package segmenter splits markdown documents into retrievable chunks along
// heading boundaries.
package segmenter

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

// minBodyLen is the minimum trimmed body length for a section to become a
// chunk; shorter sections (e.g. a lone heading) are dropped so they never
// pollute the index.
const minBodyLen = 50

// introHeading is the sentinel heading for content preceding the first
// heading of a document.
const introHeading = "(intro)"

// headingRe matches the three shallowest heading levels. Deeper levels stay
// inside the enclosing section's body.
var headingRe = regexp.MustCompile(`^#{1,3}\s+.+`)

var slugStripRe = regexp.MustCompile(`^#+\s*`)
var slugNonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the id fragment for a heading line: marker stripped,
// lowercased, runs of non-alphanumerics collapsed to single hyphens.
func Slug(heading string) string {
	s := slugStripRe.ReplaceAllString(heading, "")
	s = strings.ToLower(s)
	s = slugNonAlnumRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Segment splits one document into chunks. Each chunk's text is the heading
// line, a blank line, then the trimmed section body. Identical headings in
// the same file get a positional suffix (usage, usage-2, ...) so a later
// section never silently overwrites an earlier one; the suffixes follow
// document order, keeping ids deterministic across runs.
func Segment(content, fileName string) []models.Chunk {
	var chunks []models.Chunk
	seen := map[string]int{}

	heading := introHeading
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		body = nil
		if len(text) < minBodyLen {
			return
		}

		slug := Slug(heading)
		seen[slug]++
		if n := seen[slug]; n > 1 {
			slug = slug + "-" + strconv.Itoa(n)
		}

		chunks = append(chunks, models.Chunk{
			ID:         fileName + "#" + slug,
			Text:       heading + "\n\n" + text,
			SourceFile: fileName,
			Heading:    heading,
		})
	}

	for _, line := range strings.Split(content, "\n") {
		if headingRe.MatchString(line) {
			flush()
			heading = line
		} else {
			body = append(body, line)
		}
	}
	flush()

	return chunks
}

// SegmentAll segments every markdown file under dir, returning all chunks
// plus the number of eligible files. Unreadable files are logged and
// skipped; a directory with no markdown files yields zero chunks without
// error.
func SegmentAll(dir string) ([]models.Chunk, int, error) {
	var chunks []models.Chunk
	files := 0

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if strings.ToLower(filepath.Ext(path)) != ".md" {
				return nil
			}
			files++
			b, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to read file, skipping")
				return nil
			}
			chunks = append(chunks, Segment(string(b), filepath.Base(path))...)
			return nil
		},
	})
	if err != nil {
		return nil, 0, err
	}
	return chunks, files, nil
}

// CountFiles returns the number of markdown files under dir. Used by the
// query path to report how many documents were available for searching.
func CountFiles(dir string) int {
	n := 0
	_ = godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() && strings.ToLower(filepath.Ext(path)) == ".md" {
				n++
			}
			return nil
		},
	})
	return n
}
