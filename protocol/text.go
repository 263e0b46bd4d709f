package protocol

// SplitText cuts s into wire chunks: full MaxTextChunk chunks followed by
// the remainder. The empty string yields one empty chunk, which has no
// header encoding and is therefore never transmitted.
func SplitText(s string) []string {
	if len(s) == 0 {
		return []string{""}
	}
	chunks := make([]string, 0, (len(s)+MaxTextChunk-1)/MaxTextChunk)
	for len(s) > MaxTextChunk {
		chunks = append(chunks, s[:MaxTextChunk])
		s = s[MaxTextChunk:]
	}
	return append(chunks, s)
}

// TextAssembler rebuilds strings from consecutive text chunks.
//
// The wire carries no continuation flag. A chunk shorter than MaxTextChunk
// always ends a string; a full chunk may or may not, so it is held until the
// next chunk arrives or the caller flushes (typically when a structured
// message or an idle period follows).
type TextAssembler struct {
	buf []byte
}

// Push adds one chunk and returns the completed string, if any
func (a *TextAssembler) Push(chunk []byte) (string, bool) {
	a.buf = append(a.buf, chunk...)
	if len(chunk) == MaxTextChunk {
		return "", false
	}
	s := string(a.buf)
	a.buf = a.buf[:0]
	return s, true
}

// Flush returns any held text
func (a *TextAssembler) Flush() (string, bool) {
	if len(a.buf) == 0 {
		return "", false
	}
	s := string(a.buf)
	a.buf = a.buf[:0]
	return s, true
}

// Pending reports whether a full chunk is being held
func (a *TextAssembler) Pending() bool {
	return len(a.buf) > 0
}
