package service

import "fmt"

func greeting(name string) string {
	if name == "" {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func verifyEmailTemplate(verifyURL, name, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your %s email", appName)
	body := fmt.Sprintf(`%s

Welcome to %s! Confirm your email address to activate your account:

%s

The link expires in 24 hours. If you didn't create an account, you can ignore this email.

— The %s team
`, greeting(name), appName, verifyURL, appName)
	return subject, body
}

func passwordResetTemplate(resetURL, name, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your %s password", appName)
	body := fmt.Sprintf(`%s

Someone requested a password reset for your account. Use this link to choose a new password:

%s

The link expires in 1 hour and can be used once. All your sessions will be signed out after the reset. If you didn't request this, you can ignore this email.

— The %s team
`, greeting(name), resetURL, appName)
	return subject, body
}

func filmApprovedTemplate(name, filmTitle, appName string) (string, string) {
	subject := fmt.Sprintf("Your film %q is live", filmTitle)
	body := fmt.Sprintf(`%s

Good news: %q passed review and is now published on %s.

— The %s team
`, greeting(name), filmTitle, appName, appName)
	return subject, body
}

func filmRejectedTemplate(name, filmTitle, reason, appName string) (string, string) {
	subject := fmt.Sprintf("Your film %q was not approved", filmTitle)
	if reason == "" {
		reason = "it did not meet the content guidelines"
	}
	body := fmt.Sprintf(`%s

Unfortunately %q was not approved: %s.

You can edit your submission and it will re-enter the review queue.

— The %s team
`, greeting(name), filmTitle, reason, appName)
	return subject, body
}
