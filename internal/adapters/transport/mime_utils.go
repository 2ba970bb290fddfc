package transport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var headerDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

// decodeEncodedHeader decodes RFC 2047 encoded words such as
// =?ISO-8859-1?Q?caf=E9?= into UTF-8
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// extractTextFromMessage returns the text/plain content of a message.
// Multipart bodies are walked depth first and their text parts concatenated.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	header := textproto.MIMEHeader(msg.Header)
	return extractText(header, msg.Body, 0)
}

func extractText(header textproto.MIMEHeader, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// Missing or broken Content-Type, treat as plain text
		mediaType = "text/plain"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		if mediaType != "text/plain" {
			return "", nil
		}
		return readDecoded(header, body)
	}

	boundary, ok := params["boundary"]
	if !ok || depth >= maxMultipartDepth {
		return "", nil
	}

	var text bytes.Buffer
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if text.Len() > 0 {
				return text.String(), nil
			}
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		partText, err := extractText(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		if partText != "" {
			text.WriteString(partText)
			text.WriteString("\n")
		}
	}

	return text.String(), nil
}

// readDecoded reads a leaf body, undoing its transfer encoding.
// The multipart reader already strips quoted-printable from parts.
func readDecoded(header textproto.MIMEHeader, body io.Reader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
