package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("built-ins are known", func(t *testing.T) {
		assert.True(t, r.IsValidMailerType(MockMailer))
		assert.True(t, r.IsValidMailerType(NullMailer))
		assert.True(t, r.IsValidMailerType(CaptureMailer))
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		assert.False(t, r.IsValidMailerType("SmtpMailer"))
		assert.False(t, r.IsValidMailerType(""))
	})

	t.Run("registered extension type accepted", func(t *testing.T) {
		assert.False(t, r.IsValidMailerType("PluginMailer"))
		r.Register("PluginMailer")
		assert.True(t, r.IsValidMailerType("PluginMailer"))
	})
}
