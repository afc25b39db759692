// Package emails renders the subject and HTML body for every notification
// the system sends. Templates are parsed once at init; rendering is pure
// and safe for concurrent use.
package emails

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const layout = `<html>
  <body style="font-family: 'Segoe UI', sans-serif; background-color: #f9fafb; padding: 40px;">
    <div style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 30px; border-radius: 12px;">
      {{template "body" .}}
      <hr style="margin: 40px 0; border: none; border-top: 1px solid #e5e7eb;" />
      <p style="font-size: 12px; color: #9ca3af; text-align: center;">
        Thanks for being part of the community. Questions? Just reach out.
      </p>
    </div>
  </body>
</html>`

var templates = map[string]*template.Template{}

func init() {
	bodies := map[string]string{
		"welcome": `{{define "body"}}
<h1>🎉 Welcome, {{.Name}}!</h1>
<p>Your account is ready. Browse the clubs, join the ones you like and keep an eye on upcoming activities.</p>{{end}}`,

		"reset_code": `{{define "body"}}
<h1>🔐 Password recovery</h1>
<p>We received a request to reset your password. If it wasn't you, you can safely ignore this message.</p>
<p>Your verification code:</p>
<div style="text-align: center; margin: 30px 0;">
  <span style="display: inline-block; padding: 14px 28px; background-color: #1e3a8a; color: #ffffff; font-size: 26px; font-weight: bold; letter-spacing: 2px; border-radius: 8px;">{{.Code}}</span>
</div>
<p>This code expires in <strong>{{.Minutes}} minutes</strong>.</p>{{end}}`,

		"activity_cancelled": `{{define "body"}}
<h1>❌ Activity cancelled</h1>
<p>Hi {{.Name}}, we're sorry: <strong>{{.ActivityName}}</strong> has been cancelled.</p>{{end}}`,

		"activity_created": `{{define "body"}}
<h1>📅 New activity: {{.ActivityName}}</h1>
<p>Hi {{.Name}}, {{.GroupName}} just scheduled <strong>{{.ActivityName}}</strong>{{if .Location}} at {{.Location}}{{end}}{{if .ActivityTime}} on {{.ActivityTime}}{{end}}. Sign up before the slots run out!</p>{{end}}`,

		"activity_reminder": `{{define "body"}}
<h1>⏰ Reminder: {{.ActivityName}}</h1>
<p>Hi {{.Name}}, don't forget <strong>{{.ActivityName}}</strong>{{if .Location}} at {{.Location}}{{end}}{{if .ActivityTime}} on {{.ActivityTime}}{{end}}.</p>{{end}}`,

		"joined_activity": `{{define "body"}}
<h1>✅ You're in!</h1>
<p>Hi {{.Name}}, your enrollment in <strong>{{.ActivityName}}</strong> is confirmed.</p>{{end}}`,

		"left_activity": `{{define "body"}}
<h1>👋 Enrollment cancelled</h1>
<p>Hi {{.Name}}, you have left <strong>{{.ActivityName}}</strong>. We hope to see you at the next one.</p>{{end}}`,

		"group_member_approved": `{{define "body"}}
<h1>🎉 Request approved</h1>
<p>Hi {{.Name}}, your request to join <strong>{{.GroupName}}</strong> was approved. Welcome aboard!</p>{{end}}`,

		"group_member_rejected": `{{define "body"}}
<h1>Request declined</h1>
<p>Hi {{.Name}}, unfortunately your request to join <strong>{{.GroupName}}</strong> was not approved this time.</p>{{end}}`,
	}

	for name, body := range bodies {
		templates[name] = template.Must(
			template.Must(template.New(name).Parse(layout)).Parse(body),
		)
	}
}

type activityData struct {
	Name         string
	ActivityName string
	GroupName    string
	Location     string
	ActivityTime string
}

func Welcome(name string) (subject, html string, err error) {
	html, err = render("welcome", struct{ Name string }{name})
	return "🎉 Welcome to the club!", html, err
}

func ResetCode(code string, ttl time.Duration) (subject, html string, err error) {
	html, err = render("reset_code", struct {
		Code    string
		Minutes int
	}{code, int(ttl.Minutes())})
	return "🔍 Forgot your password? Here is your access code", html, err
}

func ActivityCancelled(name, activityName string) (subject, html string, err error) {
	html, err = render("activity_cancelled", activityData{Name: name, ActivityName: activityName})
	return "❌ Activity cancelled", html, err
}

func ActivityCreated(name, activityName, groupName, location, activityTime string) (subject, html string, err error) {
	html, err = render("activity_created", activityData{
		Name:         name,
		ActivityName: activityName,
		GroupName:    groupName,
		Location:     location,
		ActivityTime: activityTime,
	})
	return "📅 New activity: " + activityName, html, err
}

func ActivityReminder(name, activityName, location, activityTime string) (subject, html string, err error) {
	html, err = render("activity_reminder", activityData{
		Name:         name,
		ActivityName: activityName,
		Location:     location,
		ActivityTime: activityTime,
	})
	return "⏰ Reminder: " + activityName, html, err
}

func JoinedActivity(name, activityName string) (subject, html string, err error) {
	html, err = render("joined_activity", activityData{Name: name, ActivityName: activityName})
	return "✅ Enrollment confirmed", html, err
}

func LeftActivity(name, activityName string) (subject, html string, err error) {
	html, err = render("left_activity", activityData{Name: name, ActivityName: activityName})
	return "👋 Enrollment cancelled", html, err
}

func GroupMemberApproved(name, groupName string) (subject, html string, err error) {
	html, err = render("group_member_approved", activityData{Name: name, GroupName: groupName})
	return "🎉 Your join request was approved", html, err
}

func GroupMemberRejected(name, groupName string) (subject, html string, err error) {
	html, err = render("group_member_rejected", activityData{Name: name, GroupName: groupName})
	return "Your join request was declined", html, err
}

func render(name string, data any) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("emails: unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("emails: render %q: %w", name, err)
	}

	return buf.String(), nil
}
