package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"ytgrab/internal/errs"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "none"},
		{name: "invalid quality", err: errs.ErrInvalidQuality, want: "invalid_quality"},
		{name: "wrapped metadata", err: fmt.Errorf("probe: %w", errs.ErrMetadataUnavailable), want: "metadata_unavailable"},
		{name: "wrapped download", err: fmt.Errorf("run: %w", errs.ErrDownloadFailed), want: "download_failed"},
		{name: "artifact", err: errs.ErrArtifactNotFound, want: "artifact_not_found"},
		{name: "upload", err: fmt.Errorf("%w: too big", errs.ErrUploadFailed), want: "upload_failed"},
		{name: "cleanup", err: errs.ErrCleanupFailed, want: "cleanup_failed"},
		{name: "other", err: errors.New("boom"), want: "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errs.Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}
