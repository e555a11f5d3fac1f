package thumbnail

// Format is the closed set of input formats the conversion service
// accepts from us. Anything else is rejected at the boundary rather
// than forwarded as a raw mime string.
type Format string

const (
	FormatPPT  Format = "ppt"
	FormatPPTX Format = "pptx"
	FormatPDF  Format = "pdf"
)

const (
	mimePPT  = "application/vnd.ms-powerpoint"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePDF  = "application/pdf"
)

// FormatFromMime maps a slide's mime type to its conversion format.
func FormatFromMime(mimeType string) (Format, bool) {
	switch mimeType {
	case mimePPT:
		return FormatPPT, true
	case mimePPTX:
		return FormatPPTX, true
	case mimePDF:
		return FormatPDF, true
	default:
		return "", false
	}
}

// SupportedMimeTypes is used by the backlog query to filter eligible slides.
func SupportedMimeTypes() []string {
	return []string{mimePPT, mimePPTX, mimePDF}
}
