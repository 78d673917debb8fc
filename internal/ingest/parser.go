package ingest

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
)

// ParsedEmail is the canonical form of one raw mail message, before it is
// stored and before any client resolution
type ParsedEmail struct {
	Subject     string
	SenderName  string
	SenderEmail string
	ReturnPath  string
	BodyPlain   string
	BodyHTML    string
	SentAt      time.Time
}

// Body returns the body used downstream: HTML when present, plain otherwise
func (p *ParsedEmail) Body() string {
	if p.BodyHTML != "" {
		return p.BodyHTML
	}
	return p.BodyPlain
}

// ParseMessage parses a raw RFC822 message into its canonical form.
// A missing or garbled Date header degrades to now, never an error.
func ParseMessage(r io.Reader, now func() time.Time) (*ParsedEmail, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email message: %w", err)
	}

	header := msg.Header

	parsed := &ParsedEmail{
		Subject: decodeHeader(header.Get("Subject")),
	}

	// Sender identity from the From header
	if addr, err := mail.ParseAddress(header.Get("From")); err == nil {
		parsed.SenderName = decodeHeader(addr.Name)
		parsed.SenderEmail = addr.Address
	} else {
		parsed.SenderEmail = header.Get("From")
	}

	// Originating client identity from the Return-Path header
	if rp := header.Get("Return-Path"); rp != "" {
		if addr, err := mail.ParseAddress(rp); err == nil {
			parsed.ReturnPath = addr.Address
		}
	}

	// Sent timestamp, falling back to the processing time
	parsed.SentAt = now()
	if dateStr := header.Get("Date"); dateStr != "" {
		if date, err := mail.ParseDate(dateStr); err == nil {
			parsed.SentAt = date
		}
	}

	if err := extractBodies(msg, parsed); err != nil {
		return nil, fmt.Errorf("failed to extract body: %w", err)
	}

	return parsed, nil
}

// extractBodies walks the message parts and fills the plain and HTML bodies.
// Attachment parts are skipped; only the first part of each type is kept.
func extractBodies(msg *mail.Message, parsed *ParsedEmail) error {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		// Plain text email
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return err
		}
		parsed.BodyPlain = string(body)
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fallback: read as plain text
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return err
		}
		parsed.BodyPlain = string(body)
		return nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return walkMultipart(msg.Body, params["boundary"], parsed)
	}

	// Single part message, classified by its content type
	content, err := decodePartBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), params["charset"])
	if err != nil {
		return err
	}
	if strings.HasPrefix(mediaType, "text/html") {
		parsed.BodyHTML = content
	} else {
		parsed.BodyPlain = content
	}

	return nil
}

// walkMultipart collects the first text/html and first text/plain part,
// recursing into nested multiparts
func walkMultipart(body io.Reader, boundary string, parsed *ParsedEmail) error {
	mr := multipart.NewReader(body, boundary)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if disp := strings.ToLower(part.Header.Get("Content-Disposition")); strings.Contains(disp, "attachment") {
			continue
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, _ := mime.ParseMediaType(partContentType)

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			if nestedBoundary, ok := params["boundary"]; ok {
				if err := walkMultipart(part, nestedBoundary, parsed); err != nil {
					continue
				}
			}
		case strings.HasPrefix(mediaType, "text/html") && parsed.BodyHTML == "":
			content, err := decodePartBody(part, part.Header.Get("Content-Transfer-Encoding"), params["charset"])
			if err != nil {
				continue
			}
			parsed.BodyHTML = content
		case strings.HasPrefix(mediaType, "text/plain") && parsed.BodyPlain == "":
			content, err := decodePartBody(part, part.Header.Get("Content-Transfer-Encoding"), params["charset"])
			if err != nil {
				continue
			}
			parsed.BodyPlain = content
		}
	}

	return nil
}

// decodePartBody reads a part body, honoring its transfer encoding and charset
func decodePartBody(body io.Reader, transferEncoding, charsetName string) (string, error) {
	reader := body

	switch strings.ToLower(transferEncoding) {
	case "quoted-printable":
		reader = quotedprintable.NewReader(body)
	case "base64":
		reader = base64.NewDecoder(base64.StdEncoding, body)
	}

	if charsetName != "" && !strings.EqualFold(charsetName, "utf-8") {
		if converted, err := charset.Reader(strings.ToLower(charsetName), reader); err == nil {
			reader = converted
		}
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

// decodeHeader decodes MIME encoded-word headers (RFC 2047)
func decodeHeader(header string) string {
	decoder := mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := decoder.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
