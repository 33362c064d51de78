package mailer

import "html/template"

var (
	invitationTemplate = template.Must(template.New("invitation").Parse(invitationHTML))
	welcomeTemplate    = template.Must(template.New("welcome").Parse(welcomeHTML))
)

const layoutStyle = `
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 0; background-color: #f9fafb; }
        .container { max-width: 600px; margin: 0 auto; background-color: white; }
        .header { background: #000000; padding: 40px 30px; text-align: center; color: white; font-size: 28px; font-weight: bold; }
        .content { padding: 40px 30px; color: #374151; line-height: 1.6; }
        .card { background-color: #f9fafb; border: 2px solid #e5e7eb; border-radius: 12px; padding: 30px; margin: 20px 0; text-align: center; }
        .button { display: inline-block; background-color: #000000; color: white; padding: 16px 32px; text-decoration: none; border-radius: 8px; font-weight: 600; }
        .link { word-break: break-all; color: #000000; }
        .footer { background-color: #f9fafb; padding: 30px; text-align: center; color: #6b7280; font-size: 14px; }
`

const invitationHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.AppName}} Workspace Invitation</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="container">
        <div class="header">{{.AppName}}</div>
        <div class="content">
            <h1>You're invited to collaborate!</h1>
            <p>Hi {{.RecipientName}},</p>
            <p><strong>{{.InviterName}}</strong> has invited you to collaborate on their {{.AppName}} workspace.</p>
            <div class="card">
                <h2>{{.WorkspaceName}}</h2>
                <p>Invited by {{.InviterName}}</p>
                <a href="{{.InvitationURL}}" class="button">Join Workspace</a>
            </div>
            <p>Or copy and paste this link into your browser:</p>
            <p class="link">{{.InvitationURL}}</p>
            <p>If you don't have a {{.AppName}} account yet, the link above will help you create one.</p>
        </div>
        <div class="footer">
            <p>This invitation was sent by {{.InviterName}} via {{.AppName}}.</p>
        </div>
    </div>
</body>
</html>`

const welcomeHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Welcome to {{.AppName}}</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="container">
        <div class="header">{{.AppName}}</div>
        <div class="content">
            <h1>Welcome to {{.AppName}}!</h1>
            <p>Hi {{.RecipientName}},</p>
            <p>Your account has been created. You're ready to start testing APIs and generating documentation.</p>
            <div class="card">
                <a href="{{.DashboardURL}}" class="button">Go to Dashboard</a>
            </div>
        </div>
        <div class="footer">
            <p>You received this email because you signed up for {{.AppName}}.</p>
        </div>
    </div>
</body>
</html>`
