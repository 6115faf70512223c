package ftp

import (
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// TestWrapFTPClassifiesReplies covers wrapFTP's reply-code mapping
// directly, the part of this backend that doesn't require a live or
// faked control connection to exercise.
func TestWrapFTPClassifiesReplies(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  apperrors.Kind
		temporary bool
	}{
		{
			name:      "too many connections retries",
			err:       &textproto.Error{Code: 421, Msg: "too many connections"},
			wantKind:  apperrors.Unexpected,
			temporary: true,
		},
		{
			name:      "file unavailable is not found",
			err:       &textproto.Error{Code: 550, Msg: "file unavailable"},
			wantKind:  apperrors.ObjectNotFound,
			temporary: false,
		},
		{
			name:      "unrelated reply falls back to permanent unexpected",
			err:       &textproto.Error{Code: 500, Msg: "syntax error"},
			wantKind:  apperrors.Unexpected,
			temporary: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapFTP(tt.err, "Read", "some/path.txt")
			e, ok := apperrors.As(err)
			if !ok {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			assert.Equal(t, tt.wantKind, e.Kind())
			assert.Equal(t, tt.temporary, e.IsTemporary())
		})
	}
}

func TestWrapFTPNilIsNil(t *testing.T) {
	assert.NoError(t, wrapFTP(nil, "Read", "x"))
}
