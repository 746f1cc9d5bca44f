package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/feichai0017/document-condenser/internal/agent"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

const sniffLen = 3072

// DocumentValidator checks uploads before they are stored or extracted.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
}

// Err converts the first problem into a typed error.
func (r *ValidationResult) Err() error {
	if r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	first := r.Errors[0]
	if first.Code == "UNSUPPORTED_TYPE" {
		return &models.UnsupportedTypeError{MimeType: r.FileInfo.MimeType}
	}
	return &models.ValidationError{Field: first.Field, Message: first.Message}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{
			MaxFileSize:  50 * 1024 * 1024,
			AllowedTypes: []string{models.MimePDF, models.MimePlain},
		}
	}
	return &DocumentValidator{
		logger: log.Named("validator"),
		config: config,
	}
}

// ValidateFile checks size, type and signature, and hashes the content. file
// is rewound before returning.
func (v *DocumentValidator) ValidateFile(file multipart.File, header *multipart.FileHeader) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  header.Filename,
			Size:      header.Size,
			Extension: strings.ToLower(filepath.Ext(header.Filename)),
		},
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	head = head[:n]

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}
	hash, err := calculateHash(file)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hash
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	result.FileInfo.MimeType = detectMimeType(header, head)

	for _, check := range []func(FileInfo, []byte) []ValidationError{
		v.validateSize,
		v.validateMimeType,
		validateSignature,
	} {
		if errs := check(result.FileInfo, head); len(errs) > 0 {
			result.IsValid = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	if !result.IsValid {
		v.logger.Warn("Upload rejected",
			logger.String("filename", header.Filename),
			logger.String("mimeType", result.FileInfo.MimeType),
			logger.Any("errors", result.Errors),
		)
	}
	return result, nil
}

// detectMimeType trusts a specific declared type and sniffs otherwise.
func detectMimeType(header *multipart.FileHeader, head []byte) string {
	declared := agent.NormalizeType(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return agent.DeclaredType(header.Filename, head)
}

func (v *DocumentValidator) validateSize(info FileInfo, _ []byte) []ValidationError {
	if info.Size == 0 {
		return []ValidationError{{Code: "EMPTY_FILE", Message: "file is empty", Field: "size"}}
	}
	if v.config.MaxFileSize > 0 && info.Size > v.config.MaxFileSize {
		return []ValidationError{{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		}}
	}
	return nil
}

func (v *DocumentValidator) validateMimeType(info FileInfo, _ []byte) []ValidationError {
	for _, allowed := range v.config.AllowedTypes {
		if allowed == info.MimeType {
			return nil
		}
	}
	return []ValidationError{{
		Code:    "UNSUPPORTED_TYPE",
		Message: fmt.Sprintf("file type %s is not allowed", info.MimeType),
		Field:   "mimeType",
	}}
}

// validateSignature rejects files declared as PDF without the %PDF magic.
func validateSignature(info FileInfo, head []byte) []ValidationError {
	if info.MimeType == models.MimePDF && !strings.HasPrefix(string(head), "%PDF") {
		return []ValidationError{{
			Code:    "INVALID_SIGNATURE",
			Message: "not a valid PDF file",
			Field:   "file",
		}}
	}
	return nil
}

func calculateHash(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// SafeFilename names the download for an uploaded file.
func SafeFilename(original string) string {
	base := filepath.Base(original)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	if safe == "" || safe == "." {
		safe = "document"
	}
	return safe + "-processed.txt"
}
