package apperrors_test

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"configuration", apperrors.Configurationf("ORG_CODE is required"), "configuration"},
		{"source access wraps not found", apperrors.SourceAccess("BANK", apperrors.ErrNotFound), "source_access"},
		{"header", apperrors.Wrap("detect header", "SALES", apperrors.ErrHeaderNotFound), "header_detection"},
		{"render", apperrors.Render("SU CG-SUP-0001", errors.New("disk full")), "render"},
		{"other", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.Kind(tt.err))
		})
	}
}

func TestSourceAccess_KeepsCause(t *testing.T) {
	err := apperrors.SourceAccess("PURCHASE", apperrors.ErrNotFound)

	assert.ErrorIs(t, err, apperrors.ErrSourceAccess)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, apperrors.Message(err), "open source PURCHASE")
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, apperrors.Wrap("op", "subject", nil))
	assert.Equal(t, "", apperrors.Message(nil))
}
