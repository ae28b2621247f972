package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxResumeSize mirrors the server's upload limit
const MaxResumeSize = 16 << 20

var (
	ErrUnsupportedFileType = errors.New("only PDF and DOCX files are allowed")
	ErrFileTooLarge        = errors.New("file exceeds the 16MB upload limit")
	ErrEmptyFile           = errors.New("file is empty")
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// IsResumeFile reports whether the filename has an accepted extension
func IsResumeFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

// ValidateResume checks extension, size and that the leading bytes match
// the declared type. head only needs to hold the first few bytes.
func ValidateResume(filename string, size int64, head []byte) error {
	if !IsResumeFile(filename) {
		return fmt.Errorf("%s: %w", filename, ErrUnsupportedFileType)
	}
	if size == 0 {
		return fmt.Errorf("%s: %w", filename, ErrEmptyFile)
	}
	if size > MaxResumeSize {
		return fmt.Errorf("%s: %w", filename, ErrFileTooLarge)
	}

	magic := pdfMagic
	if strings.ToLower(filepath.Ext(filename)) == ".docx" {
		magic = zipMagic
	}
	if !bytes.HasPrefix(head, magic) {
		return fmt.Errorf("%s: content does not match extension: %w", filename, ErrUnsupportedFileType)
	}
	return nil
}
