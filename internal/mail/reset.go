package mail

import (
	"bytes"
	"html/template"
	"strings"
)

const resetSubject = "Reset Password"

var resetTemplate = template.Must(template.New("reset").Parse(`<h3>Hey Dreamer {{.Name}}</h3>
<p>You requested a password change. Please ignore this email if you did not.</p>
<p><a href="{{.Link}}">Click here</a> to change your password.</p>
<p>Kindly note that this link expires in 1 hour.</p>
<p>Dream on!</p>
<p>The DreamsChat Team!</p>`))

// NewPasswordResetMessage renders the reset email for the given recipient.
func NewPasswordResetMessage(to, firstName, link string) (Message, error) {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "!"
	}

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct {
		Name string
		Link string
	}{Name: name, Link: link}); err != nil {
		return Message{}, err
	}

	return Message{To: to, Subject: resetSubject, HTML: body.String()}, nil
}
