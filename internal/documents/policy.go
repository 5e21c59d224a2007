package documents

import (
	"fmt"
	"strings"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
)

// Policy is the active attachment validation configuration. Two variants
// ship: 5MB PDF/JPEG/PNG with up to 6 files per multi-slot, and a tighter
// 2MB JPEG-only variant capped at 3.
type Policy struct {
	MaxFileSize   int64
	AllowedMIMEs  []string
	MaxMultiFiles int
}

// PolicyFromConfig maps the configured upload variant onto a Policy.
func PolicyFromConfig(cfg config.UploadsConfig) Policy {
	p := Policy{
		MaxFileSize:   cfg.MaxFileSizeBytes,
		AllowedMIMEs:  cfg.AllowedMIMEs,
		MaxMultiFiles: cfg.MaxMultiFiles,
	}
	if p.MaxFileSize <= 0 {
		p.MaxFileSize = 5 * 1024 * 1024
	}
	if len(p.AllowedMIMEs) == 0 {
		p.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	if p.MaxMultiFiles <= 0 {
		p.MaxMultiFiles = 6
	}
	return p
}

// Validate checks one file against the policy, returning the user-facing
// rejection message or empty when it passes. Size is checked before type,
// matching the order errors surface in the form.
func (p Policy) Validate(file models.StagedFile) string {
	if file.Size > p.MaxFileSize {
		return p.sizeMessage()
	}
	for _, mt := range p.AllowedMIMEs {
		if strings.EqualFold(mt, file.MimeType) {
			return ""
		}
	}
	return p.typeMessage()
}

func (p Policy) sizeMessage() string {
	return fmt.Sprintf("File size must be less than %dMB", p.MaxFileSize/(1024*1024))
}

func (p Policy) typeMessage() string {
	names := make([]string, 0, len(p.AllowedMIMEs))
	for _, mt := range p.AllowedMIMEs {
		switch mt {
		case "application/pdf":
			names = append(names, "PDF")
		case "image/jpeg":
			names = append(names, "JPEG")
		case "image/png":
			names = append(names, "PNG")
		default:
			names = append(names, mt)
		}
	}
	return fmt.Sprintf("Only %s files are allowed", strings.Join(names, ", "))
}

func (p Policy) countMessage() string {
	return fmt.Sprintf("Maximum %d files allowed", p.MaxMultiFiles)
}
