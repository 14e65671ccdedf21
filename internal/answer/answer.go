package answer

// Source identifies one cited page in an answer.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Answer is the final result of one chat request. Reply contains inline
// bracketed citation markers like [1] whose numbers are 1-based positions in
// Sources.
type Answer struct {
	Reply   string   `json:"reply"`
	Sources []Source `json:"sources"`
}

// Document is a fetched, text-extracted page handed to the summarizer or the
// model synthesis path.
type Document struct {
	Title string
	URL   string
	Text  string
}
