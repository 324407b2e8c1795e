package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/gloss/pkg/core"
)

// Precompiled block patterns.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// ATX heading: level in group 1, text in group 2
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*?)(?:\s+#+)?\s*$`)

	// A line that is only an image
	imagePattern = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)\)$`)

	// A line that is only a link, checked against videoPattern
	linkPattern = regexp.MustCompile(`^\[([^\]]*)\]\((\S+?)\)$`)

	// Bare URL line
	urlPattern = regexp.MustCompile(`^https?://\S+$`)

	videoPattern = regexp.MustCompile(`(?i)^https?://((www\.|m\.)?youtube\.com/(watch\?|embed/|shorts/)|youtu\.be/|(www\.|player\.)?vimeo\.com/)|\.(mp4|webm|ogg|mov)(\?\S*)?$`)
)

// BlockIDPrefix prefixes the sequential block ids.
const BlockIDPrefix = "block"

const fence = "```"

// ParseBlocks splits an article body into typed content blocks.
// Block ids are assigned in document order ("block-0", "block-1", ...), so the
// same input always yields the same ids.
func ParseBlocks(text string) []core.ContentBlock {
	p := &blockParser{}
	lines := strings.Split(crlfOrCR.ReplaceAllString(text, "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, fence):
			p.flush()
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), fence) {
					break
				}
				code = append(code, lines[i])
			}
			p.emit(core.ContentBlock{Kind: core.KindCode, RawText: strings.Join(code, "\n"), Language: lang})

		case trimmed == "":
			p.flush()

		case headingPattern.MatchString(trimmed):
			p.flush()
			m := headingPattern.FindStringSubmatch(trimmed)
			p.emit(core.ContentBlock{Kind: core.KindText, RawText: m[2], Level: len(m[1])})

		case strings.HasPrefix(trimmed, ">"):
			p.flush()
			var quote []string
			for ; i < len(lines); i++ {
				q := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(q, ">") {
					break
				}
				q = strings.TrimPrefix(q, ">")
				quote = append(quote, strings.TrimPrefix(q, " "))
			}
			i-- // the loop header advances past the last quote line
			p.emit(core.ContentBlock{Kind: core.KindQuote, RawText: strings.Join(quote, "\n")})

		case imagePattern.MatchString(trimmed):
			p.flush()
			m := imagePattern.FindStringSubmatch(trimmed)
			p.emit(core.ContentBlock{Kind: core.KindImage, RawText: m[2], Caption: m[1]})

		default:
			if caption, url, ok := matchVideo(trimmed); ok {
				p.flush()
				p.emit(core.ContentBlock{Kind: core.KindVideo, RawText: url, Caption: caption})
				continue
			}
			p.para = append(p.para, line)
		}
	}
	p.flush()
	return p.blocks
}

// matchVideo recognizes a line holding a single video link.
func matchVideo(line string) (caption, url string, ok bool) {
	if m := linkPattern.FindStringSubmatch(line); m != nil {
		if IsVideoURL(m[2]) {
			return m[1], m[2], true
		}
		return "", "", false
	}
	if urlPattern.MatchString(line) && IsVideoURL(line) {
		return "", line, true
	}
	return "", "", false
}

// IsVideoURL reports whether url points to a recognized video host or file.
func IsVideoURL(url string) bool {
	return videoPattern.MatchString(url)
}

type blockParser struct {
	blocks []core.ContentBlock
	para   []string
}

func (p *blockParser) emit(b core.ContentBlock) {
	b.ID = fmt.Sprintf("%s-%d", BlockIDPrefix, len(p.blocks))
	p.blocks = append(p.blocks, b)
}

// flush closes the pending paragraph, if any.
func (p *blockParser) flush() {
	if len(p.para) == 0 {
		return
	}
	p.emit(core.ContentBlock{Kind: core.KindText, RawText: strings.Join(p.para, "\n")})
	p.para = nil
}
