package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"missing front matter", fmt.Errorf("a.html: %w", ErrMissingFrontMatter), KindMissingFrontMatter},
		{"missing template key", ErrMissingTemplateKey, KindMissingTemplateKey},
		{"template not found", &TemplateNotFound{Name: "post.html", Page: "a.html"}, KindTemplateNotFound},
		{"io failure", NewIOFailure("read", "a.html", fs.ErrPermission), KindIOFailure},
		{"unresolved partial", &UnresolvedPartial{Name: "nav"}, KindUnresolvedPartial},
		{"unresolved placeholder", &UnresolvedPlaceholder{Key: "title"}, KindUnresolvedPlaceholder},
		{"other", errors.New("boom"), KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestIOFailure_UnwrapsCause(t *testing.T) {
	err := NewIOFailure("read", "/src/_templates", fs.ErrNotExist)

	require.ErrorIs(t, err, fs.ErrNotExist)
	require.ErrorIs(t, err, ErrIOFailure)
	require.Equal(t, "read /src/_templates: file does not exist", err.Error())

	var target *IOFailure
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &target)
	require.Equal(t, "/src/_templates", target.Path)
}

func TestUnresolvedPartial_Message(t *testing.T) {
	require.Equal(t, `partial "nav" not found`, (&UnresolvedPartial{Name: "nav"}).Error())
	require.Equal(t, `partial "nav" not found (template base.html)`,
		(&UnresolvedPartial{Name: "nav", Template: "base.html"}).Error())
}
