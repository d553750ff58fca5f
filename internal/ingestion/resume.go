package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MinResumeLength is the shortest resume text accepted, in characters.
const MinResumeLength = 100

// ResumeError reports a resume file that cannot be used.
type ResumeError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ResumeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("resume %s: %s", e.Path, e.Message)
}

func (e *ResumeError) Unwrap() error {
	return e.Cause
}

// ReadResumeFile returns the text of a .txt or .pdf resume. Word documents and
// other types are rejected, as is text shorter than MinResumeLength.
func ReadResumeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ResumeError{Path: path, Message: "file not found", Cause: err}
		}
		return "", &ResumeError{Path: path, Message: "failed to read file", Cause: err}
	}
	return ResumeText(filepath.Base(path), data)
}

// ResumeText extracts resume text from data, dispatching on the extension of name.
func ResumeText(name string, data []byte) (string, error) {
	var text string
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt", ".text", ".md":
		text = CleanText(string(data))
	case ".pdf":
		raw, err := ReadPDFText(data)
		if err != nil {
			return "", &ResumeError{Path: name, Message: "failed to extract PDF text", Cause: err}
		}
		text = NormalizePDFText(raw)
	case ".doc", ".docx":
		return "", &ResumeError{Path: name, Message: "Word documents are not supported; save the resume as PDF or plain text"}
	default:
		return "", &ResumeError{Path: name, Message: fmt.Sprintf("unsupported file type %q; use .txt or .pdf", ext)}
	}

	if n := len([]rune(strings.TrimSpace(text))); n < MinResumeLength {
		return "", &ResumeError{
			Path:    name,
			Message: fmt.Sprintf("extracted text is too short (%d characters, need at least %d)", n, MinResumeLength),
		}
	}
	return text, nil
}

// ReadPDFText returns the plain text of every page of a PDF document.
func ReadPDFText(data []byte) (text string, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return string(out), nil
}
