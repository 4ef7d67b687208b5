// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
)

func testInvitation() domain.EmailInvitation {
	return domain.EmailInvitation{
		RecipientEmail: "guest@example.com",
		InviterName:    "Ada Lovelace",
		MeetingID:      "7cad5a8d-19d0-41a4-81a6-043453daf9ee",
		PassCode:       "4321",
		JoinLink:       "https://app.dev.lfx.dev/video-meetings/7cad5a8d-19d0-41a4-81a6-043453daf9ee?pass_code=4321&src=email",
	}
}

func TestRenderTemplate(t *testing.T) {
	t.Run("successful template rendering", func(t *testing.T) {
		tmpl, err := template.New("test").Parse("Hello {{.Name}}, your value is {{.Value}}")
		require.NoError(t, err)

		data := struct {
			Name  string
			Value int
		}{
			Name:  "TestUser",
			Value: 42,
		}

		content, err := renderTemplate(tmpl, data)
		require.NoError(t, err)
		assert.Equal(t, "Hello TestUser, your value is 42", content)
	})

	t.Run("invalid template execution", func(t *testing.T) {
		// Template expects .Name field but data doesn't have it
		tmpl, err := template.New("test").Parse("Hello {{.Name}}")
		require.NoError(t, err)

		content, err := renderTemplate(tmpl, struct{ Value int }{Value: 42})
		assert.Error(t, err)
		assert.Empty(t, content)
	})
}

func TestLoadTemplate(t *testing.T) {
	t.Run("successful template loading", func(t *testing.T) {
		tmpl, err := loadTemplate(templateConfig{
			name: "meeting_invitation.html",
			path: "templates/meeting_invitation.html",
		})
		require.NoError(t, err)
		assert.Equal(t, "meeting_invitation.html", tmpl.Name())
	})

	t.Run("nonexistent template file", func(t *testing.T) {
		tmpl, err := loadTemplate(templateConfig{
			name: "nonexistent.html",
			path: "templates/nonexistent.html",
		})
		assert.Error(t, err)
		assert.Nil(t, tmpl)
		assert.Contains(t, err.Error(), "failed to read template templates/nonexistent.html")
	})

	t.Run("nonexistent text template", func(t *testing.T) {
		tmpl, err := loadTextTemplate(templateConfig{
			name: "invalid.txt",
			path: "invalid/path/template.txt",
		})
		assert.Error(t, err)
		assert.Nil(t, tmpl)
	})
}

func TestTemplates_RenderInvitation(t *testing.T) {
	templates, err := NewTemplates()
	require.NoError(t, err)

	tests := []struct {
		name       string
		invitation func() domain.EmailInvitation
		check      func(t *testing.T, rendered *RenderedEmail)
	}{
		{
			name:       "with passcode",
			invitation: testInvitation,
			check: func(t *testing.T, rendered *RenderedEmail) {
				assert.Contains(t, rendered.HTML, "Ada Lovelace invited you to a video meeting")
				assert.Contains(t, rendered.HTML, "Passcode")
				assert.Contains(t, rendered.Text, "Passcode: 4321")
				assert.Contains(t, rendered.Text, "Meeting ID: 7cad5a8d-19d0-41a4-81a6-043453daf9ee")
				// Plain text keeps the link verbatim.
				assert.Contains(t, rendered.Text, "?pass_code=4321&src=email")
				assert.Contains(t, rendered.HTML, "pass_code=4321&amp;src=email")
			},
		},
		{
			name: "without passcode",
			invitation: func() domain.EmailInvitation {
				invitation := testInvitation()
				invitation.PassCode = ""
				return invitation
			},
			check: func(t *testing.T, rendered *RenderedEmail) {
				assert.NotContains(t, rendered.HTML, "Passcode")
				assert.NotContains(t, rendered.Text, "Passcode")
			},
		},
		{
			name: "escapes inviter name",
			invitation: func() domain.EmailInvitation {
				invitation := testInvitation()
				invitation.InviterName = "<script>x</script>"
				return invitation
			},
			check: func(t *testing.T, rendered *RenderedEmail) {
				assert.NotContains(t, rendered.HTML, "<script>")
				assert.Contains(t, rendered.HTML, "&lt;script&gt;")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, err := templates.RenderInvitation(tt.invitation())
			require.NoError(t, err)
			tt.check(t, rendered)
		})
	}

	_, err = Templates{}.RenderInvitation(testInvitation())
	assert.Error(t, err)
}
