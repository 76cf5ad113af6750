package review

import (
	"fmt"
	"strings"

	"github.com/inklane/countersign/internal/credentials"
	"github.com/inklane/countersign/internal/workflows"
)

// buildExternalReviewEmail composes the one-time delivery of an external
// access credential: the approval link carrying the token plus the passcode
// in the body. The passcode is never persisted, so this email is the only
// place it ever appears.
func buildExternalReviewEmail(
	frontendURL string,
	w *workflows.Workflow,
	issued *credentials.IssuedCredential,
) (subject, body string) {
	link := fmt.Sprintf(
		"%s/external/review/%s?token=%s",
		strings.TrimSuffix(frontendURL, "/"),
		w.ID,
		issued.Token,
	)

	subject = "Document ready for your review"
	body = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>External Review Request</h2>
    <p>A document is awaiting your review and approval.</p>
    <p><strong>Title:</strong> %s</p>
    <p><strong>Access code:</strong> <span style="font-size: 1.4em; letter-spacing: 3px;">%s</span></p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: #ffffff; text-decoration: none; border-radius: 5px;">Review Document</a>
    </p>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #666;">%s</p>
    <p>This link expires on %s.</p>
  </div>
</body>
</html>`,
		w.Title,
		issued.Passcode,
		link,
		link,
		issued.ExpiresAt.UTC().Format("02 Jan 2006 15:04 MST"),
	)

	return subject, body
}
