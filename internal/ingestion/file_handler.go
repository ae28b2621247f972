package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ResumeFile is a resume waiting in the uploads directory
type ResumeFile struct {
	Name string
	Path string
	Size int64
}

// FileHandler manages the local uploads directory used for batch imports
type FileHandler struct {
	uploadsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// Dir returns the uploads directory
func (fh *FileHandler) Dir() string {
	return fh.uploadsDir
}

// SaveUploadedFile saves a file to the uploads directory. Directory parts
// of filename are dropped.
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filePath := filepath.Join(fh.uploadsDir, filepath.Base(filename))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadResumes lists the PDF and DOCX files in the uploads directory,
// sorted by name
func (fh *FileHandler) LoadResumes() ([]ResumeFile, error) {
	entries, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ResumeFile{}, nil
		}
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	files := make([]ResumeFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsResumeFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, ResumeFile{
			Name: entry.Name(),
			Path: filepath.Join(fh.uploadsDir, entry.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Validate opens the file and checks it against the upload rules
func (f ResumeFile) Validate() error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer file.Close()

	head := make([]byte, 8)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return ValidateResume(f.Name, f.Size, head[:n])
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
