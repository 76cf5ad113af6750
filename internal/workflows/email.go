package workflows

import (
	"fmt"
	"strings"
)

// buildAssignmentEmail composes the notification sent to the internal
// reviewer when a workflow is created and assigned to them.
func buildAssignmentEmail(frontendURL string, w *Workflow) (subject, body string) {
	link := fmt.Sprintf(
		"%s/login?returnUrl=/internal/review/%s",
		strings.TrimSuffix(frontendURL, "/"),
		w.ID,
	)

	subject = "New document assigned for internal review"
	body = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Internal Review Request</h2>
    <p>A new document has been assigned to you for internal review.</p>
    <p><strong>Title:</strong> %s</p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: #ffffff; text-decoration: none; border-radius: 5px;">Open Review</a>
    </p>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #666;">%s</p>
  </div>
</body>
</html>`, w.Title, link, link)

	return subject, body
}
