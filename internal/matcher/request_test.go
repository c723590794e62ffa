package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/common/errors"
)

func urls(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://%s.example.edu/course/%d", prefix, i)
	}
	return out
}

func TestCompareRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       CompareRequest
		wantErr   bool
		wantField string
	}{
		{"one url each", CompareRequest{SideA: urls("a", 1), SideB: urls("b", 1)}, false, ""},
		{"ten urls each", CompareRequest{SideA: urls("a", 10), SideB: urls("b", 10)}, false, ""},
		{"empty first side", CompareRequest{SideB: urls("b", 1)}, true, "urls_university_1"},
		{"empty second side", CompareRequest{SideA: urls("a", 1), SideB: []string{}}, true, "urls_university_2"},
		{"eleven urls", CompareRequest{SideA: urls("a", 11), SideB: urls("b", 1)}, true, "urls_university_1"},
		{"bad url on second side", CompareRequest{SideA: urls("a", 2), SideB: []string{"https://b.example.edu", "not a url"}}, true, "urls_university_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, appErr.Context["field"])
		})
	}

	t.Run("bad url carries its index", func(t *testing.T) {
		err := CompareRequest{SideA: []string{"https://a.example.edu", "ftp://a.example.edu/x"}, SideB: urls("b", 1)}.Validate()
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, 1, appErr.Context["index"])
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://uni.example.edu/courses/cs101", false},
		{"http://localhost:8080/page", false},
		{"", true},
		{"   ", true},
		{"uni.example.edu/courses", true},
		{"ftp://uni.example.edu/file", true},
		{"https://", true},
		{"https://exa mple.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
