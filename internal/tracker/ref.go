package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"eventcal/internal/atomicfile"
)

// reference is the on-disk shape of the tracked message id.
type reference struct {
	MessageID string `json:"messageId"`
}

// RefFile persists the id of the tracked message.
type RefFile struct {
	path string
}

// NewRefFile returns a RefFile stored at path.
func NewRefFile(path string) *RefFile {
	return &RefFile{path: path}
}

// Path returns the backing file.
func (f *RefFile) Path() string { return f.path }

// Load returns the stored message id, or "" when none has been stored.
func (f *RefFile) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("tracker: read reference %s: %w", f.path, err)
	}

	var ref reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("tracker: parse reference %s: %w", f.path, err)
	}
	return ref.MessageID, nil
}

// Save overwrites the stored message id.
func (f *RefFile) Save(messageID string) error {
	data, err := json.MarshalIndent(reference{MessageID: messageID}, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicfile.Write(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("tracker: write reference %s: %w", f.path, err)
	}
	return nil
}
