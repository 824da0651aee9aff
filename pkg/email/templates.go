package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template represents a predefined email template type.
type Template string

const (
	// TemplateReportSubmitted notifies responders of a new report.
	TemplateReportSubmitted Template = "report_submitted"
	// TemplateReportAssigned notifies responders of an assignment change.
	TemplateReportAssigned Template = "report_assigned"
	// TemplateReportStatusChanged notifies responders of a lifecycle change.
	TemplateReportStatusChanged Template = "report_status_changed"
	// TemplateReportCommentAdded notifies responders of a new comment.
	TemplateReportCommentAdded Template = "report_comment_added"
	// TemplatePasswordReset is the password reset template.
	TemplatePasswordReset Template = "password_reset"
)

// ReportNotificationData holds data for the report notification templates.
type ReportNotificationData struct {
	RecipientName string
	EventName     string
	Title         string
	Message       string
	ReportURL     string
	AppName       string
}

// PasswordResetData holds data for the password reset template.
type PasswordResetData struct {
	UserName    string
	ResetURL    string
	ExpiresIn   string
	AppName     string
	RequestedAt string
}

// TemplateEngine handles email template rendering.
type TemplateEngine struct {
	templates map[Template]*templateDef
}

type templateDef struct {
	subjectTmpl *template.Template
	bodyTmpl    *template.Template
}

// NewTemplateEngine creates a new template engine with all predefined templates.
func NewTemplateEngine() *TemplateEngine {
	engine := &TemplateEngine{
		templates: make(map[Template]*templateDef),
	}
	engine.registerTemplates()
	return engine
}

// Render renders a template with the given data.
func (e *TemplateEngine) Render(tmpl Template, data any) (subject string, body string, err error) {
	def, ok := e.templates[tmpl]
	if !ok {
		return "", "", fmt.Errorf("template %s not found", tmpl)
	}

	var subjectBuf bytes.Buffer
	if err := def.subjectTmpl.Execute(&subjectBuf, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}

	var bodyBuf bytes.Buffer
	if err := def.bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}

func (e *TemplateEngine) register(name Template, subject, body string) {
	e.templates[name] = &templateDef{
		subjectTmpl: template.Must(template.New(string(name) + "_subject").Parse(subject)),
		bodyTmpl:    template.Must(template.New(string(name) + "_body").Parse(bodyLayout(body))),
	}
}

// bodyLayout wraps body content in the shared HTML shell.
func bodyLayout(content string) string {
	return `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
` + content + `
<hr style="border: none; border-top: 1px solid #e0e0e0; margin-top: 32px;">
<p style="font-size: 12px; color: #888;">You are receiving this because you are a responder for this event in {{.AppName}}. Manage your notification settings in your account.</p>
</body>
</html>`
}

func (e *TemplateEngine) registerTemplates() {
	e.register(TemplateReportSubmitted,
		`[{{.EventName}}] New incident report`,
		`<h2>New incident report</h2>
<p>Hi {{.RecipientName}},</p>
<p>A new incident report was submitted for <strong>{{.EventName}}</strong>.</p>
<p>{{.Message}}</p>
<p><a href="{{.ReportURL}}" style="display: inline-block; padding: 10px 20px; background: #c0392b; color: #fff; text-decoration: none; border-radius: 4px;">View report</a></p>`,
	)

	e.register(TemplateReportAssigned,
		`[{{.EventName}}] Report assignment changed`,
		`<h2>Assignment changed</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.Message}}</p>
<p><a href="{{.ReportURL}}" style="display: inline-block; padding: 10px 20px; background: #2c3e50; color: #fff; text-decoration: none; border-radius: 4px;">View report</a></p>`,
	)

	e.register(TemplateReportStatusChanged,
		`[{{.EventName}}] Report status changed`,
		`<h2>Status changed</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.Message}}</p>
<p><a href="{{.ReportURL}}" style="display: inline-block; padding: 10px 20px; background: #2c3e50; color: #fff; text-decoration: none; border-radius: 4px;">View report</a></p>`,
	)

	e.register(TemplateReportCommentAdded,
		`[{{.EventName}}] New comment on report`,
		`<h2>New comment</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.Message}}</p>
<p><a href="{{.ReportURL}}" style="display: inline-block; padding: 10px 20px; background: #2c3e50; color: #fff; text-decoration: none; border-radius: 4px;">View report</a></p>`,
	)

	e.registerPasswordReset()
}

func (e *TemplateEngine) registerPasswordReset() {
	e.templates[TemplatePasswordReset] = &templateDef{
		subjectTmpl: template.Must(template.New("password_reset_subject").Parse(
			`Reset your {{.AppName}} password`)),
		bodyTmpl: template.Must(template.New("password_reset_body").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
<h2>Password reset</h2>
<p>Hi {{.UserName}},</p>
<p>A password reset was requested for your account on {{.RequestedAt}}. This link expires in {{.ExpiresIn}}.</p>
<p><a href="{{.ResetURL}}" style="display: inline-block; padding: 10px 20px; background: #2c3e50; color: #fff; text-decoration: none; border-radius: 4px;">Reset password</a></p>
<p style="font-size: 12px; color: #888;">If you did not request this, you can safely ignore this email.</p>
</body>
</html>`)),
	}
}
