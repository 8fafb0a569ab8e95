package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

const maxCommentLen = 2000

var supportedExtensions = map[string]bool{
	".bmp":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tiff": true,
	".webm": true,
}

// FileMeta is what the boundary knows about an upload before the bytes are
// handed to the image ingest.
type FileMeta struct {
	Filename string
	Size     int64
}

// Result accumulates validation messages; OK is true only when Messages is
// empty. Parsed Options are valid only when OK.
type Result struct {
	OK       bool
	Messages []string
	Options  Options
}

type Validator struct {
	tripSecret  string
	maxFileSize int64
}

func NewValidator(tripSecret string, maxFileSize int64) *Validator {
	return &Validator{tripSecret: tripSecret, maxFileSize: maxFileSize}
}

// NewThread validates an OP submission.
func (v *Validator) NewThread(name, subject, optionsRaw, comment string, file *FileMeta) Result {
	var messages []string

	if file != nil {
		messages = append(messages, v.validateFile(file)...)
	}
	messages = append(messages, validateComment(comment)...)

	opts, optMessages := ParseOptions(optionsRaw, v.tripSecret)
	messages = append(messages, optMessages...)

	return Result{OK: len(messages) == 0, Messages: messages, Options: opts}
}

// NewReply validates a reply submission. Images are optional in replies.
func (v *Validator) NewReply(name, optionsRaw, comment string, file *FileMeta) Result {
	var messages []string

	if file != nil {
		messages = append(messages, v.validateFile(file)...)
	}
	messages = append(messages, validateComment(comment)...)

	opts, optMessages := ParseOptions(optionsRaw, v.tripSecret)
	messages = append(messages, optMessages...)

	return Result{OK: len(messages) == 0, Messages: messages, Options: opts}
}

func (v *Validator) validateFile(file *FileMeta) []string {
	var messages []string

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		messages = append(messages, "image required")
	} else if !supportedExtensions[ext] {
		messages = append(messages, "not a supported filetype")
	} else if file.Size <= 0 {
		messages = append(messages, "empty file found")
	} else if file.Size >= v.maxFileSize {
		messages = append(messages, fmt.Sprintf("file larger than %d MB limit", v.maxFileSize/(1024*1024)))
	}

	return messages
}

func validateComment(comment string) []string {
	var messages []string
	if comment == "" {
		messages = append(messages, "comment is a required field")
	} else if len(comment) > maxCommentLen {
		messages = append(messages, fmt.Sprintf("comment is larger than %d character limit", maxCommentLen))
	}
	return messages
}
